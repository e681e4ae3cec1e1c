package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"schoolbridge/internal/domain/translation"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxAttempts is the initial request plus three retries.
const maxAttempts = 4

// defaultUserAgents is the rotation pool. The upstream is a free-tier API
// that throttles by client fingerprint; rotating the agent and forwarded IP
// only spreads load across its buckets and provides no security.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

type Options struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	RetryDelay time.Duration
	// Cache defaults to a FIFOCache of DefaultCacheCapacity entries.
	Cache      Cache
	UserAgents []string
}

// Client talks to the batch translation API.
type Client struct {
	http       *resty.Client
	url        string
	apiKey     string
	retryDelay time.Duration
	cache      Cache
	logger     *logrus.Entry

	mu         sync.Mutex
	userAgents []string
	uaIndex    int
}

var _ translation.Translator = (*Client)(nil)

func NewClient(opts Options, logger *logrus.Entry) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = NewFIFOCache(DefaultCacheCapacity)
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = defaultUserAgents
	}
	return &Client{
		http: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		url:        opts.URL,
		apiKey:     opts.APIKey,
		retryDelay: opts.RetryDelay,
		cache:      opts.Cache,
		logger:     logger,
		userAgents: append([]string(nil), opts.UserAgents...),
	}
}

type translateInput struct {
	Source string `json:"source"`
}

type translateRequest struct {
	Input  []translateInput `json:"input"`
	Config struct {
		Language struct {
			SourceLanguage string `json:"sourceLanguage"`
			TargetLanguage string `json:"targetLanguage"`
		} `json:"language"`
	} `json:"config"`
}

type translateResponse struct {
	Output []struct {
		Target string `json:"target"`
	} `json:"output"`
}

// statusError is a non-2xx answer from the upstream.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("translation upstream returned HTTP %d", e.code)
}

// retryable reports whether err warrants another attempt: rate limiting,
// transport failures and unusable bodies do, other HTTP statuses do not.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests
	}
	return true
}

// TranslateBatch translates texts from sourceLang to targetLang in a single
// upstream call. It never returns an error: once retries are exhausted, or
// the upstream refuses the request, the result is Unavailable.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) translation.Result {
	if len(texts) == 0 {
		return translation.Translated([]string{})
	}

	key := CacheKey(texts, sourceLang, targetLang)
	if outputs, ok := c.cache.Get(key); ok {
		return translation.Translated(outputs)
	}

	log := c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"texts":       len(texts),
	})

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && c.retryDelay > 0 {
			select {
			case <-ctx.Done():
				log.WithError(ctx.Err()).Warn("Translation abandoned, context done")
				return translation.Unavailable()
			case <-time.After(c.retryDelay):
			}
		}

		outputs, err := c.send(ctx, texts, sourceLang, targetLang)
		if err == nil {
			c.cache.Put(key, outputs)
			c.advanceUserAgent()
			return translation.Translated(outputs)
		}

		attemptLog := log.WithField("attempt", attempt).WithError(err)
		if !retryable(err) {
			attemptLog.Error("Translation failed, falling back to source text")
			return translation.Unavailable()
		}
		attemptLog.Warn("Translation attempt failed")
	}

	log.Errorf("Translation unavailable after %d attempts, falling back to source text", maxAttempts)
	return translation.Unavailable()
}

func (c *Client) send(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	payload := translateRequest{Input: make([]translateInput, len(texts))}
	for i, t := range texts {
		payload.Input[i] = translateInput{Source: t}
	}
	payload.Config.Language.SourceLanguage = sourceLang
	payload.Config.Language.TargetLanguage = targetLang

	req := c.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", c.currentUserAgent()).
		SetHeader("X-Forwarded-For", randomIPv4()).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(payload)
	if c.apiKey != "" {
		req.SetHeader("Authorization", c.apiKey)
	}

	resp, err := req.Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &statusError{code: resp.StatusCode()}
	}

	var body translateResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode translation response: %w", err)
	}
	if len(body.Output) != len(texts) {
		return nil, fmt.Errorf("translation response has %d outputs for %d inputs", len(body.Output), len(texts))
	}

	outputs := make([]string, len(body.Output))
	for i, o := range body.Output {
		outputs[i] = o.Target
	}
	return outputs, nil
}

func (c *Client) currentUserAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAgents[c.uaIndex]
}

// advanceUserAgent moves the rotation forward. It is only called after a
// successful upstream call.
func (c *Client) advanceUserAgent() {
	c.mu.Lock()
	c.uaIndex = (c.uaIndex + 1) % len(c.userAgents)
	c.mu.Unlock()
}

func randomIPv4() string {
	return fmt.Sprintf("%d.%d.%d.%d", rand.Intn(223)+1, rand.Intn(256), rand.Intn(256), rand.Intn(254)+1)
}
