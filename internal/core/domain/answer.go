package domain

import (
	"encoding/json"
	"time"
)

type Citation struct {
	Title       string `json:"title"`
	URL         string `json:"url" validate:"required,url"`
	LastUpdated string `json:"last_updated"`
}

// StructuredAnswer is the validated guidance object returned to users.
type StructuredAnswer struct {
	Jurisdiction         string     `json:"jurisdiction" validate:"eq=UK"`
	ShortAnswer          string     `json:"short_answer" validate:"required"`
	StepByStepPlan       []string   `json:"step_by_step_plan" validate:"min=1"`
	RisksOrDeadlines     []string   `json:"risks_or_deadlines"`
	WhenToSeekASolicitor string     `json:"when_to_seek_a_solicitor" validate:"required"`
	Citations            []Citation `json:"citations" validate:"dive"`
	Confidence           float64    `json:"confidence" validate:"gte=0,lte=1"`
}

// MarshalJSON always writes arrays, never null, so the output validates again.
func (a StructuredAnswer) MarshalJSON() ([]byte, error) {
	type plain StructuredAnswer
	out := plain(a)
	if out.StepByStepPlan == nil {
		out.StepByStepPlan = []string{}
	}
	if out.RisksOrDeadlines == nil {
		out.RisksOrDeadlines = []string{}
	}
	if out.Citations == nil {
		out.Citations = []Citation{}
	}
	return json.Marshal(out)
}

type AnswerMetadata struct {
	Intent          Intent          `json:"intent"`
	ChunksRetrieved int             `json:"chunks_retrieved"`
	QAEventID       *string         `json:"qa_event_id"`
	Retrieval       RetrievalSource `json:"retrieval"`
	ModelCalls      int             `json:"model_calls"`
}

type AnswerResult struct {
	Answer   StructuredAnswer `json:"answer"`
	Metadata AnswerMetadata   `json:"metadata"`
}

// QAEvent links a question, the accepted answer and the chunks it was built from.
type QAEvent struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	Question          string           `json:"question"`
	Answer            StructuredAnswer `json:"answer"`
	RetrievedChunkIDs []string         `json:"retrieved_chunk_ids"`
	Confidence        float64          `json:"confidence"`
	CreatedAt         time.Time        `json:"created_at"`
}
