package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/genukahq/go-oauth-bridge/auth"
	"github.com/genukahq/go-oauth-bridge/companies/postgres"
	"github.com/genukahq/go-oauth-bridge/genuka"
	"github.com/genukahq/go-oauth-bridge/internal/config"
	"github.com/genukahq/go-oauth-bridge/internal/database"
	"github.com/genukahq/go-oauth-bridge/internal/secretbox"
	"github.com/genukahq/go-oauth-bridge/server"
	"github.com/genukahq/go-oauth-bridge/sessions"
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

	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New %w", err)
	}
	displayAppname(c.GetAppName())

	srv, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	if err := database.RunMigrations(c.GetDatabaseURL()); err != nil {
		return nil, fmt.Errorf("database.RunMigrations %w", err)
	}
	db, err := database.Open(c.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("database.Open %w", err)
	}

	var box *secretbox.Box
	if c.GetEncryptTokens() {
		box, err = secretbox.New(c.GetClientSecret())
		if err != nil {
			return nil, fmt.Errorf("secretbox.New %w", err)
		}
	}
	companyRepo := postgres.New(db, box)

	provider := genuka.NewClient(c)
	authService, err := auth.NewService(provider, companyRepo, c)
	if err != nil {
		return nil, fmt.Errorf("auth.NewService %w", err)
	}

	return server.New(c, authService, sessions.NewIssuer(c))
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
