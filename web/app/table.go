package app

import "github.com/JaimeStill/speakeval/pkg/views"

// Table is the exam app's client route table. The root and every
// unmatched path land on the exam list.
var Table = views.MustNew(
	views.Route{Path: "/", Redirect: views.ToName("Exams")},
	views.Route{Path: "/login", Name: "Login", View: "login"},
	views.Route{Path: "/register", Name: "Register", View: "register"},
	views.Route{Path: "/exams", Name: "Exams", View: "exams"},
	views.Route{Path: "/exams/:examId", Name: "ExamStart", View: "exam-start", Props: true},
	views.Route{Path: "/exam-result/:attemptId", Name: "ExamResults", View: "exam-results", Props: true},
	views.Route{Path: "/:pathMatch(.*)*", Name: "NotFound", Redirect: views.ToName("Exams")},
)
