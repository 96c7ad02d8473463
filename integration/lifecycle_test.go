package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vigil-go/internal/api"
	"vigil-go/internal/config"
	"vigil-go/internal/domain"
	"vigil-go/internal/evaluator"
	"vigil-go/internal/notification"
	memorystor "vigil-go/internal/store/memory"
)

// newTestApp wires the full memory-mode stack behind the fiber app.
func newTestApp() *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	ruleRepo := memorystor.NewRuleRepository()
	alertRepo := memorystor.NewAlertRepository()
	activeStore := memorystor.NewActiveStore()

	senders := map[domain.Channel]notification.ChannelSender{
		domain.ChannelChat:    notification.NewLogSender("chat", logger),
		domain.ChannelEmail:   notification.NewLogSender("email", logger),
		domain.ChannelSMS:     notification.NewLogSender("sms", logger),
		domain.ChannelWebhook: notification.NewLogSender("webhook", logger),
	}
	notifier := notification.NewDispatcher(senders, time.Second, logger)

	evalService := evaluator.NewService(ruleRepo, alertRepo, activeStore, notifier, nil, logger)

	server := api.NewServer(api.ServerDeps{
		Config:          &cfg.Server,
		Logger:          logger,
		RuleHandler:     api.NewRuleHandler(ruleRepo, logger),
		AlertHandler:    api.NewAlertHandler(alertRepo, logger),
		EvaluateHandler: api.NewEvaluateHandler(evalService, logger),
	})

	return server.App()
}

// doRequest performs an in-process request against the fiber app.
func doRequest(app *fiber.App, method, path string, body interface{}) *http.Response {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, int(10*time.Second/time.Millisecond))
	Expect(err).NotTo(HaveOccurred())
	return resp
}

// parseData decodes the envelope and returns the data field.
func parseData(resp *http.Response) interface{} {
	defer resp.Body.Close()
	var envelope map[string]interface{}
	Expect(json.NewDecoder(resp.Body).Decode(&envelope)).To(Succeed())
	Expect(envelope["success"]).To(BeTrue())
	return envelope["data"]
}

var _ = Describe("Alert Lifecycle", Ordered, func() {
	var (
		app     *fiber.App
		alertID string
	)

	BeforeAll(func() {
		app = newTestApp()
	})

	It("reports healthy", func() {
		resp := doRequest(app, "GET", "/healthz", nil)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("registers a rule", func() {
		rule := map[string]interface{}{
			"id":        "high-api-latency",
			"name":      "High API Latency",
			"metric":    "api_latency_p95",
			"condition": "greater_than",
			"threshold": 3000,
			"severity":  "critical",
			"channels":  []string{"chat", "email"},
			"enabled":   true,
		}

		resp := doRequest(app, "POST", "/v1/rules", rule)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		data := parseData(resp).(map[string]interface{})
		Expect(data["id"]).To(Equal("high-api-latency"))
	})

	It("triggers an alert when the threshold is breached", func() {
		resp := doRequest(app, "POST", "/v1/evaluate", map[string]float64{
			"api_latency_p95": 4000,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		data := parseData(resp).(map[string]interface{})
		Expect(data["count"]).To(BeNumerically("==", 1))

		transitions := data["transitions"].([]interface{})
		first := transitions[0].(map[string]interface{})
		Expect(first["kind"]).To(Equal("triggered"))

		alert := first["alert"].(map[string]interface{})
		Expect(alert["status"]).To(Equal("firing"))
		Expect(alert["message"]).To(ContainSubstring("4.0s"))
		alertID = alert["id"].(string)
		Expect(alertID).NotTo(BeEmpty())
	})

	It("lists the firing alert", func() {
		resp := doRequest(app, "GET", "/v1/alerts", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		alerts := parseData(resp).([]interface{})
		Expect(alerts).To(HaveLen(1))

		alert := alerts[0].(map[string]interface{})
		Expect(alert["id"]).To(Equal(alertID))
	})

	It("does not trigger a duplicate on a repeated breach", func() {
		resp := doRequest(app, "POST", "/v1/evaluate", map[string]float64{
			"api_latency_p95": 4200,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		data := parseData(resp).(map[string]interface{})
		Expect(data["count"]).To(BeNumerically("==", 0))
	})

	It("records an acknowledgment without changing status", func() {
		resp := doRequest(app, "POST", "/v1/alerts/"+alertID+"/acknowledge", map[string]string{
			"user_id":   "op-7",
			"user_name": "Sam",
			"message":   "looking into it",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		alert := parseData(resp).(map[string]interface{})
		Expect(alert["status"]).To(Equal("firing"))

		acks := alert["acknowledgments"].([]interface{})
		Expect(acks).To(HaveLen(1))
		ack := acks[0].(map[string]interface{})
		Expect(ack["user_id"]).To(Equal("op-7"))
		Expect(ack["id"]).NotTo(BeEmpty())
	})

	It("rejects acknowledgment of an unknown alert", func() {
		resp := doRequest(app, "POST", "/v1/alerts/no-such-alert/acknowledge", map[string]string{
			"user_id": "op-7",
		})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("resolves the alert when the metric recovers", func() {
		resp := doRequest(app, "POST", "/v1/evaluate", map[string]float64{
			"api_latency_p95": 500,
		})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		data := parseData(resp).(map[string]interface{})
		Expect(data["count"]).To(BeNumerically("==", 1))

		transitions := data["transitions"].([]interface{})
		first := transitions[0].(map[string]interface{})
		Expect(first["kind"]).To(Equal("resolved"))

		alert := first["alert"].(map[string]interface{})
		Expect(alert["id"]).To(Equal(alertID))
		Expect(alert["status"]).To(Equal("resolved"))
		Expect(alert["message"]).To(HavePrefix("RESOLVED: "))
	})

	It("leaves no firing alerts after resolution", func() {
		resp := doRequest(app, "GET", "/v1/alerts", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		data := parseData(resp)
		if data != nil {
			Expect(data.([]interface{})).To(BeEmpty())
		}
	})

	It("keeps the full lifecycle in history", func() {
		resp := doRequest(app, "GET", "/v1/alerts/history", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		alerts := parseData(resp).([]interface{})
		Expect(alerts).To(HaveLen(1))

		alert := alerts[0].(map[string]interface{})
		Expect(alert["id"]).To(Equal(alertID))
		Expect(alert["status"]).To(Equal("resolved"))

		// The acknowledgment recorded while firing survives resolution.
		acks := alert["acknowledgments"].([]interface{})
		Expect(acks).To(HaveLen(1))
	})

	It("deletes the rule", func() {
		resp := doRequest(app, "DELETE", "/v1/rules/high-api-latency", nil)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		resp = doRequest(app, "GET", "/v1/rules/high-api-latency", nil)
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})
})
