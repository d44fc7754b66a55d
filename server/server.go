package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/mtarnavskyi/quiz-webclient/internal/config"
	"github.com/mtarnavskyi/quiz-webclient/locale"
	"github.com/mtarnavskyi/quiz-webclient/platform"
	"github.com/mtarnavskyi/quiz-webclient/server/authflowrepo"
	"github.com/mtarnavskyi/quiz-webclient/session"
	"github.com/pkg/errors"
)

// Server serves the application's localized, auth-gated routes on the local
// listener. Navigation passes through the locale resolver and the route
// guard before any handler runs.
type Server struct {
	env      string
	mux      *http.ServeMux
	handler  http.HandlerFunc
	routes   []string
	config   config.Config
	api      *apiclient.Client
	sessions *session.Controller
	platform *platform.Service
	locales  *locale.Resolver

	authState authflowrepo.Repo

	googleOidc     *googleOidc
	googleOidcLock sync.Mutex
}

// New wires the server over its collaborators.
func New(cfg config.Config, api *apiclient.Client, sessions *session.Controller, platformService *platform.Service, locales *locale.Resolver) (*Server, error) {
	if api == nil {
		return nil, errors.New("[Server New] api client is required")
	}
	if sessions == nil {
		return nil, errors.New("[Server New] session controller is required")
	}
	if platformService == nil {
		return nil, errors.New("[Server New] platform service is required")
	}
	if locales == nil {
		return nil, errors.New("[Server New] locale resolver is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		api:       api,
		sessions:  sessions,
		platform:  platformService,
		locales:   locales,
		authState: authflowrepo.NewInMemoryRepo(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	// Guards run outside the mux so locale resolution and the auth gate
	// apply before matching continues.
	s.handler = ChainMiddleware(s.mux.ServeHTTP,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.LocaleMiddleware,
		s.AuthGateMiddleware,
	)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
