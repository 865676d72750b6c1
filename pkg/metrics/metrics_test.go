package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordSubmission()

			Convey("Then metric names carry namespace, subsystem and prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_ns_test_sub_pfx_submissions_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When a request is dispatched and settles with a 500", func() {
			m.RecordSubmission()
			m.RecordDefaultPrevented()
			m.RecordPayload(1024, 1, 1)
			m.RecordDispatch()
			So(testutil.ToFloat64(m.inFlight), ShouldEqual, 1)
			m.RecordSettled(OutcomeCompleted, 500, 0.02)

			Convey("Then counters reflect one completed submission", func() {
				So(testutil.ToFloat64(m.submissions), ShouldEqual, 1)
				So(testutil.ToFloat64(m.preventedTotal), ShouldEqual, 1)
				So(testutil.ToFloat64(m.inFlight), ShouldEqual, 0)
				So(testutil.ToFloat64(m.outcomes.WithLabelValues(OutcomeCompleted)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.responses.WithLabelValues("5xx")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.textPartsTotal), ShouldEqual, 1)
				So(testutil.ToFloat64(m.filePartsTotal), ShouldEqual, 1)
			})
		})

		Convey("When a transport error settles", func() {
			m.RecordDispatch()
			m.RecordSettled(OutcomeTransport, 0, 0.001)

			Convey("Then no response class is recorded", func() {
				So(testutil.ToFloat64(m.outcomes.WithLabelValues(OutcomeTransport)), ShouldEqual, 1)
				So(testutil.CollectAndCount(m.responses), ShouldEqual, 0)
			})
		})

		Convey("When encoding fails and a submission arrives unbound", func() {
			m.RecordEncodeError()
			m.RecordUnbound()

			Convey("Then both are counted", func() {
				So(testutil.ToFloat64(m.outcomes.WithLabelValues(OutcomeEncode)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.unboundSubmits), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("When recording", func() {
			m.RecordSubmission()
			m.RecordDispatch()

			Convey("Then nothing changes", func() {
				So(testutil.ToFloat64(m.submissions), ShouldEqual, 0)
				So(testutil.ToFloat64(m.inFlight), ShouldEqual, 0)
			})
		})
	})
}

func TestStatusClass(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		So(StatusClass(200), ShouldEqual, "2xx")
		So(StatusClass(302), ShouldEqual, "3xx")
		So(StatusClass(404), ShouldEqual, "4xx")
		So(StatusClass(503), ShouldEqual, "5xx")
		So(StatusClass(0), ShouldEqual, "other")
		So(StatusClass(999), ShouldEqual, "other")
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Default().RecordSubmission()
		path := filepath.Join(t.TempDir(), "formsubmit.prom")

		Convey("When exporting to a textfile", func() {
			err := WriteTextfile(path)

			Convey("Then the file holds the submissions counter", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "formsubmit_client_submissions_total")
			})
		})

		Convey("When the target directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))

			Convey("Then an export error is returned", func() {
				So(errors.Is(err, ErrExportFailed), ShouldBeTrue)
			})
		})
	})
}
