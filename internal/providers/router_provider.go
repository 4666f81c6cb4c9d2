package providers

import (
	"net/http"
	"ntpbg/internal/structures"
	"sort"
	"strings"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	Any(url string, handlers map[string]http.Handler)
	Files(prefix string, handler http.Handler)
	GetRoutes() []structures.Route
}

type RouterProvider struct {
	routes []structures.Route
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.Any(url, map[string]http.Handler{http.MethodGet: handler})
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.Any(url, map[string]http.Handler{http.MethodPost: handler})
}

// Any registers one handler per HTTP method on the same url.
func (rp *RouterProvider) Any(url string, handlers map[string]http.Handler) {
	rp.routes = append(rp.routes, structures.Route{
		Url:     url,
		Handler: methodHandler(handlers),
	})
}

// Files registers a read-only file tree. HEAD is accepted so clients can probe
// an image without downloading it; net/http drops the body.
func (rp *RouterProvider) Files(prefix string, handler http.Handler) {
	rp.Any(prefix, map[string]http.Handler{
		http.MethodGet:  handler,
		http.MethodHead: handler,
	})
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}

func methodHandler(handlers map[string]http.Handler) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
