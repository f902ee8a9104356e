package routing_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/speakeval/internal/routing"
	"github.com/JaimeStill/speakeval/pkg/routes"
	"github.com/JaimeStill/speakeval/pkg/views"
)

func newMux(t *testing.T, table *views.Table) *http.ServeMux {
	t.Helper()
	h := routing.NewHandler(table, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	routes.Register(mux, "", nil, h.Routes())
	return mux
}

func examTable() *views.Table {
	return views.MustNew(
		views.Route{Path: "/", Redirect: views.ToName("Exams")},
		views.Route{Path: "/login", Name: "Login", View: "login.html"},
		views.Route{Path: "/exams", Name: "Exams", View: "exams.html"},
		views.Route{Path: "/exams/:examId", Name: "ExamStart", View: "exam-start.html", Props: true},
		views.Route{Path: "/:pathMatch(.*)*", Name: "NotFound", Redirect: views.ToName("Exams")},
	)
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestList(t *testing.T) {
	rec := get(newMux(t, examTable()), "/views")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []views.Route
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(routes) = %d, want 5", len(got))
	}
	if got[3].Name != "ExamStart" || !got[3].Props {
		t.Errorf("routes[3] = %+v", got[3])
	}
	if got[0].Redirect == nil || got[0].Redirect.Name != "Exams" {
		t.Errorf("routes[0].Redirect = %+v", got[0].Redirect)
	}
}

func TestResolve(t *testing.T) {
	mux := newMux(t, examTable())

	tests := []struct {
		name      string
		path      string
		wantView  string
		wantProps map[string]string
		wantFrom  string
	}{
		{"root redirects", "/", "exams.html", nil, "/"},
		{"props forwarded", "/exams/42", "exam-start.html", map[string]string{"examId": "42"}, ""},
		{"unmatched redirects", "/foo/bar", "exams.html", nil, "/foo/bar"},
		{"login has no props", "/login", "login.html", nil, ""},
		{"malformed escape kept raw", "/exams/%25zz", "exam-start.html", map[string]string{"examId": "%zz"}, ""},
		{"static segments ignore case", "/EXAMS/42", "exam-start.html", map[string]string{"examId": "42"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(mux, "/views/resolve?path="+tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
			}

			var res views.Resolution
			json.NewDecoder(rec.Body).Decode(&res)

			if res.View != tt.wantView {
				t.Errorf("View = %q, want %q", res.View, tt.wantView)
			}
			if len(res.Props) != len(tt.wantProps) {
				t.Errorf("Props = %v, want %v", res.Props, tt.wantProps)
			}
			for k, v := range tt.wantProps {
				if res.Props[k] != v {
					t.Errorf("Props[%q] = %q, want %q", k, res.Props[k], v)
				}
			}
			if res.RedirectedFrom != tt.wantFrom {
				t.Errorf("RedirectedFrom = %q, want %q", res.RedirectedFrom, tt.wantFrom)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	noCatchAll := views.MustNew(
		views.Route{Path: "/exams", Name: "Exams", View: "exams.html"},
	)
	loop := views.MustNew(
		views.Route{Path: "/a", Redirect: views.ToPath("/b")},
		views.Route{Path: "/b", Redirect: views.ToPath("/a")},
	)

	tests := []struct {
		name       string
		table      *views.Table
		query      string
		wantStatus int
	}{
		{"missing path", noCatchAll, "/views/resolve", http.StatusBadRequest},
		{"no match", noCatchAll, "/views/resolve?path=/nowhere", http.StatusNotFound},
		{"redirect loop", loop, "/views/resolve?path=/a", http.StatusLoopDetected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newMux(t, tt.table), tt.query)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestURL(t *testing.T) {
	mux := newMux(t, examTable())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantURL    string
	}{
		{"static", "/views/url/Login", http.StatusOK, "/login"},
		{"with param", "/views/url/ExamStart?examId=42", http.StatusOK, "/exams/42"},
		{"missing param", "/views/url/ExamStart", http.StatusBadRequest, ""},
		{"unknown route", "/views/url/Nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(mux, tt.query)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantURL == "" {
				return
			}
			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["url"] != tt.wantURL {
				t.Errorf("url = %q, want %q", body["url"], tt.wantURL)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{views.ErrNoMatch, http.StatusNotFound},
		{views.ErrUnknownRoute, http.StatusNotFound},
		{views.ErrRedirectLoop, http.StatusLoopDetected},
		{views.ErrMissingParam, http.StatusBadRequest},
		{views.ErrInvalidParam, http.StatusBadRequest},
		{routing.ErrMissingPath, http.StatusBadRequest},
		{io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := routing.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
