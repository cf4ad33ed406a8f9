package models

// AnnounceRequest carries comma separated recipient lists.
type AnnounceRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Emails  string `json:"emails"`
	Phones  string `json:"phones"`
}

type AnnounceResponse struct {
	OK        bool `json:"ok"`
	SentEmail int  `json:"sentEmail"`
	SentSms   int  `json:"sentSms"`
}

type RateRequest struct {
	SessionID string     `json:"session_id" binding:"required"`
	Stars     FlexNumber `json:"stars"`
	Feedback  string     `json:"feedback"`
}
