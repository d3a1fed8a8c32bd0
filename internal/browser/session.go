// internal/browser/session.go
package browser

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/snapshot"
)

//go:embed extract.js
var extractScript string

//go:embed interact.js
var interactScript string

const defaultNavigationTimeout = 30 * time.Second

// Session owns one headless Chrome tab. It observes the page as a snapshot
// and implements agent.Driver for fills and clicks.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	closeOnce sync.Once
}

// AllocatorOptions translates the browser config into chromedp allocator options.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
	)

	for _, arg := range cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if arg == "" {
			continue
		}
		// Boolean flags (e.g. --no-zygote).
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			opts = append(opts, chromedp.Flag(key, true))
			continue
		}
		opts = append(opts, chromedp.Flag(key, value))
	}
	return opts
}

// NewSession launches the browser and opens a tab. The browser lives until
// Close is called or parent is canceled.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, AllocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		cfg:    cfg,
		logger: logger.Named("browser"),
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		s.cancel()
		return nil, agent.NewSubprocessSpawnError(err.Error())
	}
	s.logger.Info("Browser session started", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session")
		s.cancel()
	})
	return nil
}

// Navigate loads url and waits for the configured settle time.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))

	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return agent.NewSessionProtocolError("navigate", fmt.Sprintf("timed out after %s", navTimeout))
		}
		if opCtx.Err() != nil {
			return s.interrupted(ctx)
		}
		return agent.NewSessionProtocolError("navigate", err.Error())
	}
	return s.settle(opCtx)
}

// Observe captures the current URL, title and semantic elements.
func (s *Session) Observe(ctx context.Context) (*snapshot.Snapshot, error) {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	var (
		url, title string
		elements   []screen.DomElement
	)
	err := chromedp.Run(opCtx,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.Evaluate(extractScript, &elements, returnByValue),
	)
	if err != nil {
		if opCtx.Err() != nil {
			return nil, s.interrupted(ctx)
		}
		return nil, agent.NewDOMStructureError(fmt.Sprintf("element extraction failed: %v", err))
	}

	s.logger.Debug("Captured snapshot", zap.String("url", url), zap.Int("elements", len(elements)))
	return &snapshot.Snapshot{URL: url, Title: title, Elements: elements}, nil
}

// Fill sets the value of the input matching target.
func (s *Session) Fill(ctx context.Context, target agent.Target, value string) error {
	return s.interact(ctx, interactCommand{Action: "fill", Value: value, Selector: hintFor(target)})
}

// Click clicks the element matching target and waits for the page to settle.
func (s *Session) Click(ctx context.Context, target agent.Target) error {
	return s.interact(ctx, interactCommand{Action: "click", Selector: hintFor(target)})
}

// selectorHint is the element description understood by interact.js.
type selectorHint struct {
	Role   string `json:"role,omitempty"`
	Name   string `json:"name,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Type   string `json:"type,omitempty"`
	FormID string `json:"formId,omitempty"`
}

type interactCommand struct {
	Action   string       `json:"action"`
	Value    string       `json:"value,omitempty"`
	Selector selectorHint `json:"selector"`
}

type interactResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func hintFor(t agent.Target) selectorHint {
	return selectorHint{Role: t.Role, Name: t.Name, Tag: t.Tag, Type: t.InputType, FormID: t.FormID}
}

// interactExpression renders the call of interact.js for cmd.
func interactExpression(cmd interactCommand) (string, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return "", agent.NewJSONSerializeError("browser command", err)
	}
	return fmt.Sprintf("(%s)(%s)", strings.TrimSpace(interactScript), payload), nil
}

func (s *Session) interact(ctx context.Context, cmd interactCommand) error {
	expr, err := interactExpression(cmd)
	if err != nil {
		return err
	}

	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	var res interactResult
	if err := chromedp.Run(opCtx, chromedp.Evaluate(expr, &res, returnByValue)); err != nil {
		if opCtx.Err() != nil {
			return s.interrupted(ctx)
		}
		return agent.NewSessionIOError(err.Error())
	}
	if !res.Success {
		if res.Error == "" {
			res.Error = "Unknown error"
		}
		return agent.NewBrowserActionError(res.Error)
	}

	s.logger.Debug("Browser interaction complete", zap.String("action", cmd.Action), zap.String("name", cmd.Selector.Name))
	if cmd.Action == "click" {
		return s.settle(opCtx)
	}
	return nil
}

// interrupted explains a canceled operation. The caller's own cancellation
// wins; otherwise the browser went away underneath the session.
func (s *Session) interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return agent.NewSubprocessFailedError(fmt.Sprintf("browser exited: %v", context.Cause(s.ctx)))
}

// settle gives the page time to react after navigation or a click.
func (s *Session) settle(ctx context.Context) error {
	if s.cfg.SettleTime <= 0 {
		return nil
	}
	return chromedp.Run(ctx, chromedp.Sleep(s.cfg.SettleTime))
}

func returnByValue(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithReturnByValue(true).WithAwaitPromise(true)
}
