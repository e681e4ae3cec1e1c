package expo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"schoolbridge/internal/domain/push"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ChunkLimit is the maximum number of messages Expo accepts per request.
const ChunkLimit = 100

const DefaultURL = "https://exp.host/--/api/v2/push/send"

// ErrInvalidPayload is returned when the payload cannot be sent at all.
var ErrInvalidPayload = errors.New("invalid push payload")

var deviceUUID = regexp.MustCompile(`^[a-zA-Z\d]{8}-[a-zA-Z\d]{4}-[a-zA-Z\d]{4}-[a-zA-Z\d]{4}-[a-zA-Z\d]{12}$`)

// IsPushToken reports whether token looks like an Expo push token.
func IsPushToken(token string) bool {
	if (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]") {
		return true
	}
	return deviceUUID.MatchString(token)
}

type Options struct {
	URL         string
	AccessToken string
	Timeout     time.Duration
	ChunkSize   int
}

// Gateway sends push notifications through the Expo push service.
type Gateway struct {
	http      *resty.Client
	url       string
	chunkSize int
	logger    *logrus.Entry
}

var _ push.Dispatcher = (*Gateway)(nil)

func NewGateway(opts Options, logger *logrus.Entry) *Gateway {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ChunkSize <= 0 || opts.ChunkSize > ChunkLimit {
		opts.ChunkSize = ChunkLimit
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.AccessToken != "" {
		client.SetAuthToken(opts.AccessToken)
	}
	return &Gateway{
		http:      client,
		url:       opts.URL,
		chunkSize: opts.ChunkSize,
		logger:    logger,
	}
}

type message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

type ticket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

type sendResponse struct {
	Data   []ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Dispatch filters tokens, chunks them and sends each chunk in turn.
// Delivery problems are logged; only ErrInvalidPayload is returned.
func (g *Gateway) Dispatch(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	valid := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if IsPushToken(t) {
			valid = append(valid, t)
			continue
		}
		g.logger.WithField("token", t).Warn("Skipping malformed push token")
	}
	if len(valid) == 0 {
		g.logger.Debug("No valid push tokens, nothing to send")
		return nil
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: title and body are both empty", ErrInvalidPayload)
	}

	messages := make([]message, len(valid))
	for i, t := range valid {
		messages[i] = message{To: t, Title: title, Body: body, Data: data, Sound: "default"}
	}

	chunks := chunkMessages(messages, g.chunkSize)
	for i, chunk := range chunks {
		g.sendChunk(ctx, i, chunk)
	}
	return nil
}

func (g *Gateway) sendChunk(ctx context.Context, index int, chunk []message) {
	log := g.logger.WithFields(logrus.Fields{"chunk": index, "messages": len(chunk)})

	resp, err := g.http.R().SetContext(ctx).SetBody(chunk).Post(g.url)
	if err != nil {
		log.WithError(err).Error("Failed to send push chunk")
		return
	}
	if !resp.IsSuccess() {
		log.WithField("status", resp.StatusCode()).Errorf("Push provider rejected chunk: %s", resp.String())
		return
	}

	var out sendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		log.WithError(err).Error("Failed to decode push tickets")
		return
	}
	for _, e := range out.Errors {
		log.WithField("code", e.Code).Errorf("Push provider error: %s", e.Message)
	}

	sent := 0
	for i, t := range out.Data {
		if t.Status == "error" {
			to := ""
			if i < len(chunk) {
				to = chunk[i].To
			}
			log.WithFields(logrus.Fields{
				"token":  to,
				"reason": t.Details.Error,
			}).Warnf("Push ticket error: %s", t.Message)
			continue
		}
		sent++
	}
	log.WithField("accepted", sent).Info("Push chunk sent")
}

func chunkMessages(messages []message, size int) [][]message {
	chunks := make([][]message, 0, (len(messages)+size-1)/size)
	for start := 0; start < len(messages); start += size {
		end := min(start+size, len(messages))
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}
