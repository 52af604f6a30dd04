// Package main implements wampctl, a command-line WAMP client that
// exercises the public session API end to end: call, publish,
// subscribe, and register, plus version and init housekeeping.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nugget/gowamp/internal/buildinfo"
	"github.com/nugget/gowamp/internal/config"
	"github.com/nugget/gowamp/internal/wampevents"
	"github.com/nugget/gowamp/internal/wampinstance"
	"github.com/nugget/gowamp/internal/wampsession"
	"github.com/nugget/gowamp/internal/wamptransport"
)

func main() {
	logLevelFlag := flag.String("log-level", "info", "log level: trace, debug, info, warn, error")
	instanceDir := flag.String("instance-dir", ".", "directory holding the persisted instance id")
	flag.Parse()

	level, err := config.ParseLogLevel(*logLevelFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, level)

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	args := flag.Args()
	cmd, rest := args[0], args[1:]

	var runErr error
	switch cmd {
	case "version":
		runVersion()
	case "init":
		runErr = runInit(os.Stdout, firstOr(rest, "."))
	case "call":
		runErr = runCall(logger, *instanceDir, rest)
	case "publish":
		runErr = runPublish(logger, *instanceDir, rest)
	case "subscribe":
		runErr = runSubscribe(logger, *instanceDir, rest)
	case "register":
		runErr = runRegister(logger, *instanceDir, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("wampctl - a command-line WAMP v2 client")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  call <router-url> <realm> <procedure> [json-args]")
	fmt.Println("  publish <router-url> <realm> <topic> [json-args] [-ack]")
	fmt.Println("  subscribe <router-url> <realm> <topic>")
	fmt.Println("  register <router-url> <realm> <procedure> <echo|reverse>")
	fmt.Println("  version")
	fmt.Println("  init [dir]")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func firstOr(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	return args[0]
}

func runVersion() {
	fmt.Println(buildinfo.String())
	for k, v := range buildinfo.BuildInfo() {
		fmt.Printf("  %-12s %s\n", k+":", v)
	}
}

// parseJSONArgs decodes an optional JSON array argument into
// positional call/publish arguments. An empty string yields no args.
func parseJSONArgs(raw string) ([]any, error) {
	if raw == "" {
		return nil, nil
	}
	var args []any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("parse json-args %q: %w", raw, err)
	}
	return args, nil
}

// cliListener bridges wampsession.Listener notifications into
// channels a subcommand can select on.
type cliListener struct {
	wampsession.NopListener
	logger  *slog.Logger
	joined  chan struct{}
	aborted chan error
}

func newCLIListener(logger *slog.Logger) *cliListener {
	return &cliListener{
		logger:  logger,
		joined:  make(chan struct{}, 1),
		aborted: make(chan error, 1),
	}
}

func (l *cliListener) OnRealmJoined(realm string) {
	l.logger.Info("joined realm", "realm", realm)
	select {
	case l.joined <- struct{}{}:
	default:
	}
}

func (l *cliListener) OnRealmLeft(realm string, fromRouter bool) {
	l.logger.Info("left realm", "realm", realm, "from_router", fromRouter)
}

func (l *cliListener) OnSessionShutdown() {
	l.logger.Info("session shut down")
}

func (l *cliListener) OnSessionAborted(reason string, cause error) {
	err := errors.New(reason)
	if cause != nil {
		err = fmt.Errorf("%s: %w", reason, cause)
	}
	l.logger.Warn("session aborted", "reason", reason, "cause", cause)
	select {
	case l.aborted <- err:
	default:
	}
}

// dialAndJoin dials routerURL, constructs a session, joins realm, and
// waits for either WELCOME or an abort. On success it returns a
// session in state JOINED; the caller owns its lifecycle from there.
func dialAndJoin(ctx context.Context, logger *slog.Logger, instanceDir, routerURL, realm string) (*wampsession.Session, *cliListener, error) {
	instanceID, err := wampinstance.LoadOrCreateInstanceID(instanceDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load instance id: %w", err)
	}

	listener := newCLIListener(logger)
	transport := wamptransport.New(logger)
	session := wampsession.New(transport, listener,
		wampsession.WithLogger(logger),
		wampsession.WithInstanceID(instanceID),
	)

	if err := transport.Connect(ctx, routerURL, session); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	if err := session.Join(realm); err != nil {
		return nil, nil, fmt.Errorf("join: %w", err)
	}

	select {
	case <-listener.joined:
		return session, listener, nil
	case err := <-listener.aborted:
		return nil, nil, err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func runCall(logger *slog.Logger, instanceDir string, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: wampctl call <router-url> <realm> <procedure> [json-args]")
	}
	routerURL, realm, procedure := args[0], args[1], args[2]
	callArgs, err := parseJSONArgs(firstOr(args[3:], ""))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, _, err := dialAndJoin(ctx, logger, instanceDir, routerURL, realm)
	if err != nil {
		return err
	}
	defer session.Shutdown()

	events, err := session.Call(procedure, callArgs, nil)
	if err != nil {
		return err
	}

	event := <-events
	switch e := event.(type) {
	case wampevents.CallSucceeded:
		return printJSON(e.Args, e.ArgsKw)
	case wampevents.CallFailed:
		return fmt.Errorf("call failed: %s", e.ErrorURI)
	default:
		return fmt.Errorf("unexpected call event %T", e)
	}
}

func runPublish(logger *slog.Logger, instanceDir string, args []string) error {
	ack := false
	var positional []string
	for _, a := range args {
		if a == "-ack" {
			ack = true
			continue
		}
		positional = append(positional, a)
	}
	if len(positional) < 3 {
		return errors.New("usage: wampctl publish <router-url> <realm> <topic> [json-args] [-ack]")
	}
	routerURL, realm, topic := positional[0], positional[1], positional[2]
	pubArgs, err := parseJSONArgs(firstOr(positional[3:], ""))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, _, err := dialAndJoin(ctx, logger, instanceDir, routerURL, realm)
	if err != nil {
		return err
	}
	defer session.Shutdown()

	events, err := session.Publish(topic, pubArgs, nil, ack)
	if err != nil {
		return err
	}

	event, ok := <-events
	if !ok {
		return nil // fire and forget
	}
	switch e := event.(type) {
	case wampevents.PublicationSucceeded:
		fmt.Printf("published, id=%d\n", e.PublicationID)
		return nil
	case wampevents.PublicationFailed:
		return fmt.Errorf("publish failed: %s", e.ErrorURI)
	default:
		return fmt.Errorf("unexpected publication event %T", e)
	}
}

func runSubscribe(logger *slog.Logger, instanceDir string, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: wampctl subscribe <router-url> <realm> <topic>")
	}
	routerURL, realm, topic := args[0], args[1], args[2]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	session, _, err := dialAndJoin(ctx, logger, instanceDir, routerURL, realm)
	if err != nil {
		return err
	}
	defer session.Shutdown()

	events, err := session.Subscribe(topic)
	if err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			switch e := event.(type) {
			case wampevents.SubscriptionEstablished:
				fmt.Printf("subscribed, id=%d\n", e.SubscriptionID)
			case wampevents.Payload:
				printJSON(e.Args, e.ArgsKw)
			case wampevents.SubscriptionClosed:
				return nil
			case wampevents.SubscriptionFailed:
				return fmt.Errorf("subscribe failed: %s", e.ErrorURI)
			case wampevents.UnsubscriptionFailed:
				return fmt.Errorf("unsubscribe failed: %s", e.ErrorURI)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func runRegister(logger *slog.Logger, instanceDir string, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: wampctl register <router-url> <realm> <procedure> <echo|reverse>")
	}
	routerURL, realm, procedure, kind := args[0], args[1], args[2], args[3]
	handler, err := demoHandler(kind)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	session, _, err := dialAndJoin(ctx, logger, instanceDir, routerURL, realm)
	if err != nil {
		return err
	}
	defer session.Shutdown()

	events, err := session.Register(procedure)
	if err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			switch e := event.(type) {
			case wampevents.ProcedureRegistered:
				fmt.Printf("registered, id=%d\n", e.RegistrationID)
			case wampevents.Invocation:
				resultArgs, resultKw, handlerErr := handler(e.Args, e.ArgsKw)
				if handlerErr != nil {
					e.Responder.Fail("wampctl.error.handler_failed", nil, map[string]any{"message": handlerErr.Error()})
					continue
				}
				e.Responder.Succeed(resultArgs, resultKw)
			case wampevents.ProcedureUnregistered:
				return nil
			case wampevents.RegistrationFailed:
				return fmt.Errorf("register failed: %s", e.ErrorURI)
			case wampevents.UnregistrationFailed:
				return fmt.Errorf("unregister failed: %s", e.ErrorURI)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func printJSON(args []any, argsKw map[string]any) error {
	out := struct {
		Args   []any          `json:"args,omitempty"`
		ArgsKw map[string]any `json:"argsKw,omitempty"`
	}{args, argsKw}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
