package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/authflow"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/authurl"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/browser"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/credentials"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/internal/config"
	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/relay"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("sign-in failed")
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	displayAppname(cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := oauth2.Endpoint{AuthURL: cfg.AuthorizeURL}
	if cfg.IssuerURL != "" {
		endpoint, err = authurl.DiscoverEndpoint(ctx, cfg.IssuerURL)
		if err != nil {
			return err
		}
	}

	builder, err := authurl.New(cfg.ClientID, cfg.CallbackURL, cfg.Scopes, endpoint)
	if err != nil {
		return err
	}

	relayClient, err := relay.NewHTTPClient(cfg.RelayBaseURL, cfg.PollRequestTimeout)
	if err != nil {
		return err
	}

	done := make(chan credentials.Credential, 1)
	controller, err := authflow.NewController(
		authflow.Deps{
			Builder:  builder,
			Launcher: browser.NewExternalLauncher(),
			Relay:    relayClient,
			Store:    credentials.NewStore(),
		},
		cfg.PollPolicy(),
		authflow.WithCompletion(func(cred credentials.Credential) {
			done <- cred
		}),
	)
	if err != nil {
		return err
	}

	if _, err := controller.BeginSignIn(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			controller.Cancel()
			controller.Wait()
			return nil
		case cred := <-done:
			printIdentity(cred)
			return nil
		case update := <-controller.Updates():
			fmt.Println(update.Message)
			if update.Status == authflow.StatusTimedOut || update.Status == authflow.StatusFailed {
				return errors.Errorf("sign-in ended: %s", update.Status)
			}
		}
	}
}

func printIdentity(cred credentials.Credential) {
	if cred.Identity.Email != "" {
		fmt.Printf("Signed in as %s\n", cred.Identity.Email)
		return
	}
	fmt.Println("Signed in.")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
