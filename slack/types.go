package slack

type baseResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func (b *baseResponse) result() *baseResponse { return b }

type postMessageRequest struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Mrkdwn   bool   `json:"mrkdwn"`
}

type postMessageResponse struct {
	baseResponse
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

type uploadURLResponse struct {
	baseResponse
	UploadURL string `json:"upload_url"`
	FileID    string `json:"file_id"`
}

type uploadedFile struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

type completeUploadRequest struct {
	Files     []uploadedFile `json:"files"`
	ChannelID string         `json:"channel_id,omitempty"`
	ThreadTS  string         `json:"thread_ts,omitempty"`
}
