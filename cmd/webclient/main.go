package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/mtarnavskyi/quiz-webclient/credentials"
	"github.com/mtarnavskyi/quiz-webclient/internal/config"
	"github.com/mtarnavskyi/quiz-webclient/locale"
	"github.com/mtarnavskyi/quiz-webclient/platform"
	"github.com/mtarnavskyi/quiz-webclient/server"
	"github.com/mtarnavskyi/quiz-webclient/session"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	if err := os.MkdirAll(c.GetDataFolder(), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}
	store, err := credentials.NewSQLiteStore(filepath.Join(c.GetDataFolder(), "webclient.db"))
	if err != nil {
		return fmt.Errorf("credentials.NewSQLiteStore: %w", err)
	}
	defer store.Close()

	api := apiclient.New(c.GetAPIBaseURL(), store)
	sessions, err := session.NewController(api, store)
	if err != nil {
		return fmt.Errorf("session.NewController: %w", err)
	}

	srv, err := server.New(c, api, sessions, platform.NewService(api), locale.NewResolver(store))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
