package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hupe1980/quillmesh/logging"
)

// Construction errors.
var (
	ErrMissingAPIKey   = errors.New("search provider requires an API key")
	ErrUnknownProvider = errors.New("unknown search provider")
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 10 * time.Second

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Provider executes web searches.
//
// Search returns at most maxResults results and never fails: any transport
// or decoding problem yields an empty slice.
type Provider interface {
	Kind() Kind
	Search(ctx context.Context, query string, maxResults int) []Result
}

// Kind is the closed set of supported providers.
type Kind int

const (
	DuckDuckGo Kind = iota
	Serper
	Tavily
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case DuckDuckGo:
		return "duckduckgo"
	case Serper:
		return "serper"
	case Tavily:
		return "tavily"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RequiresAPIKey reports whether the kind authenticates with an API key.
func (k Kind) RequiresAPIKey() bool { return k == Serper || k == Tavily }

// Kinds lists every supported provider kind.
func Kinds() []Kind { return []Kind{DuckDuckGo, Serper, Tavily} }

// ParseKind converts a configuration name (case-insensitive) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "duckduckgo":
		return DuckDuckGo, nil
	case "serper":
		return Serper, nil
	case "tavily":
		return Tavily, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// Options configures a Provider.
type Options struct {
	APIKey  string
	Timeout time.Duration
	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// New constructs the provider for kind.
func New(kind Kind, optFns ...func(o *Options)) (Provider, error) {
	opts := Options{
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	if kind.RequiresAPIKey() && opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, kind)
	}

	base := newClient(kind, opts)

	switch kind {
	case DuckDuckGo:
		return &duckDuckGo{client: base}, nil
	case Serper:
		return &serper{client: base}, nil
	case Tavily:
		return &tavily{client: base}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
}
