package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	dto "github.com/prometheus/client_model/go"

	"catsgallery/gallery"
	"catsgallery/metrics"
	"catsgallery/structs"
)

func family(m *metrics.Metrics, name string) *dto.MetricFamily {
	families, err := m.Gatherer().Gather()
	Expect(err).ToNot(HaveOccurred())
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterByOutcome(m *metrics.Metrics, outcome string) float64 {
	f := family(m, "catsgallery_fetches_total")
	if f == nil {
		return 0
	}
	for _, metric := range f.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.New()
	})

	It("counts fetches by outcome", func() {
		cats := []structs.Cat{{ID: "1", URL: "https://example.com"}}
		m.ObserveFetch(gallery.FetchRecord{Generation: 1, Cats: cats, Committed: true, Duration: time.Millisecond})
		m.ObserveFetch(gallery.FetchRecord{Generation: 2, Cats: cats, Duration: time.Millisecond})
		m.ObserveFetch(gallery.FetchRecord{Generation: 3, Err: errors.New("boom")})
		m.ObserveFetch(gallery.FetchRecord{Generation: 4, Err: errors.New("boom")})

		Expect(counterByOutcome(m, metrics.OutcomeCommitted)).To(Equal(1.0))
		Expect(counterByOutcome(m, metrics.OutcomeSuperseded)).To(Equal(1.0))
		Expect(counterByOutcome(m, metrics.OutcomeFailed)).To(Equal(2.0))

		duration := family(m, "catsgallery_fetch_duration_seconds")
		Expect(duration).ToNot(BeNil())
		Expect(duration.GetMetric()[0].GetHistogram().GetSampleCount()).To(Equal(uint64(4)))
	})

	It("exports the session gauge", func() {
		sessions := 3
		m.TrackSessions(func() int { return sessions })

		f := family(m, "catsgallery_sessions")
		Expect(f).ToNot(BeNil())
		Expect(f.GetMetric()[0].GetGauge().GetValue()).To(Equal(3.0))
	})

	It("serves the registry and times routed API calls", func() {
		app := fiber.New()
		app.Use(m.APIMiddleware())
		app.Get("/metrics", m.Handler())
		app.Get("/ping", func(c *fiber.Ctx) error {
			return c.SendString("pong")
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
		Expect(err).ToNot(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`catsgallery_api_call_seconds_count{method="GET",path="/ping"} 1`))
		Expect(string(body)).ToNot(ContainSubstring(`path="/metrics"`))
	})

	It("labels requests without a route as unmatched", func() {
		app := fiber.New()
		app.Use(m.APIMiddleware())
		app.Get("/metrics", m.Handler())
		app.Get("/", func(c *fiber.Ctx) error {
			return c.SendString("home")
		})

		for _, target := range []string{"/nope", "/api/missing"} {
			resp, err := app.Test(httptest.NewRequest("GET", target, nil), -1)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		}
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
		Expect(err).ToNot(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`catsgallery_api_call_seconds_count{method="GET",path="unmatched"} 2`))
		Expect(string(body)).To(ContainSubstring(`catsgallery_api_call_seconds_count{method="GET",path="/"} 1`))
	})
})
