package apple

import (
	"strings"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// WebView is the part of an embedded browser the interceptor drives.
type WebView interface {
	// StopLoading halts the current navigation.
	StopLoading() error
	// EvaluateScript runs script in the context of the current page.
	EvaluateScript(script string) error
}

// ResourceLoader observes every resource the browser is about to load.
// An empty url means the browser did not supply one.
type ResourceLoader interface {
	OnLoadResource(view WebView, url string)
}

// ResourceLoaderFunc adapts a function to ResourceLoader.
type ResourceLoaderFunc func(view WebView, url string)

// OnLoadResource calls f(view, url).
func (f ResourceLoaderFunc) OnLoadResource(view WebView, url string) {
	f(view, url)
}

// DefaultResourceLoader lets the browser load the resource unchanged.
var DefaultResourceLoader ResourceLoader = ResourceLoaderFunc(func(WebView, string) {})

// URLInterceptor waits for a resource whose URL contains the target substring
// and, on the first match, stops the navigation and evaluates the script in the
// page. Every other resource goes to the next loader. Once fired it ignores all
// further load events.
type URLInterceptor struct {
	target string
	script string
	next   ResourceLoader

	fired atomic.Bool
}

// NewURLInterceptor builds an interceptor for target. A nil next uses
// DefaultResourceLoader.
func NewURLInterceptor(target, script string, next ResourceLoader) *URLInterceptor {
	if next == nil {
		next = DefaultResourceLoader
	}
	return &URLInterceptor{
		target: target,
		script: script,
		next:   next,
	}
}

// Fired reports whether the interceptor already took over a navigation.
func (i *URLInterceptor) Fired() bool {
	return i.fired.Load()
}

// OnLoadResource implements ResourceLoader.
func (i *URLInterceptor) OnLoadResource(view WebView, url string) {
	if i.fired.Load() {
		return
	}
	if url == "" || !strings.Contains(url, i.target) {
		i.next.OnLoadResource(view, url)
		return
	}
	if !i.fired.CompareAndSwap(false, true) {
		return
	}
	log.Debugf("apple: intercepted navigation to %s", url)
	if view == nil {
		return
	}
	if err := view.StopLoading(); err != nil {
		log.Warnf("apple: failed to stop loading %s: %v", url, err)
	}
	if err := view.EvaluateScript(WrapScript(i.script)); err != nil {
		log.Errorf("apple: failed to inject form collector: %v", err)
	}
}
