package interview

import "time"

// Status tracks the lifecycle of an interview session. The transition is
// monotonic: once a session is done it never becomes active again.
type Status string

const (
	StatusActive Status = "active"
	StatusDone   Status = "done"
)

// Session is one end-to-end pre-screening interview.
type Session struct {
	SessionID       string   `bson:"session_id" json:"session_id"`
	PatientName     string   `bson:"patient_name,omitempty" json:"patient_name,omitempty"`
	DomainQuestions []string `bson:"domain_questions" json:"domain_questions"`
	QAHistory       []QAPair `bson:"qa_history" json:"qa_history"`
	// QACount mirrors len(QAHistory); the durable store increments it
	// atomically alongside every append.
	QACount        int       `bson:"qa_count" json:"qa_count"`
	Status         Status    `bson:"status" json:"status"`
	Classification string    `bson:"classification,omitempty" json:"classification,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// QAPair records a single question/answer turn. History is append-only and
// keeps turn order.
type QAPair struct {
	Question  string    `bson:"question" json:"question"`
	Answer    string    `bson:"answer" json:"answer"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
