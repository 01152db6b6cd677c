package storefront

import (
	"net/http"
	"reflect"
	"runtime"
	"sort"
	"sync"
)

// RouteInfo describes one registered page route.
type RouteInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// RouteRegistry wraps http.ServeMux and records registered routes for introspection.
type RouteRegistry struct {
	mux    *http.ServeMux
	mu     sync.Mutex
	routes []RouteInfo
}

func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{mux: http.NewServeMux()}
}

// HandleRoute registers a method-aware pattern. When name is empty the
// handler's function name is recorded instead.
func (r *RouteRegistry) HandleRoute(method, pattern, name string, handler func(http.ResponseWriter, *http.Request)) {
	if name == "" {
		name = handlerName(handler)
	}
	r.mu.Lock()
	r.routes = append(r.routes, RouteInfo{
		Method:  method,
		Path:    pattern,
		Handler: name,
	})
	r.mu.Unlock()
	r.mux.HandleFunc(pattern, handler)
}

func (r *RouteRegistry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes lists registrations in the order they were made.
func (r *RouteRegistry) Routes() []RouteInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RouteInfo, len(r.routes))
	copy(out, r.routes)
	return out
}

// SortedRoutes lists registrations ordered by path.
func (r *RouteRegistry) SortedRoutes() []RouteInfo {
	out := r.Routes()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func handlerName(handler func(http.ResponseWriter, *http.Request)) string {
	if handler == nil {
		return ""
	}
	ptr := reflect.ValueOf(handler).Pointer()
	if ptr == 0 {
		return ""
	}
	if fn := runtime.FuncForPC(ptr); fn != nil {
		return fn.Name()
	}
	return ""
}
