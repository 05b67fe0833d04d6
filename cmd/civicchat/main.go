package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/shenikar/civic_issue_map/internal/chatsync"
	"github.com/shenikar/civic_issue_map/internal/client"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/session"
	"github.com/shenikar/civic_issue_map/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	commandQuit  = "/quit"
	commandLeave = "/leave"
)

type options struct {
	apiURL      string
	name        string
	issueID     string
	groupID     string
	createGroup string
	mode        string
	interval    time.Duration
	logLevel    string
}

func parseFlags(cfg *config.ClientConfig, args []string) (options, error) {
	return parseFlagsTo(cfg, args, os.Stderr)
}

func parseFlagsTo(cfg *config.ClientConfig, args []string, output io.Writer) (options, error) {
	var opts options
	flags := flag.NewFlagSet("civicchat", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		_, _ = fmt.Fprintln(output, "Usage: civicchat [--group <id> | --issue <id> [--create <name>]] [flags]")
		flags.PrintDefaults()
	}
	flags.StringVar(&opts.apiURL, "api", cfg.APIBaseURL, "base URL of the issue API")
	flags.StringVar(&opts.name, "name", "", "display name (Anonymous when empty)")
	flags.StringVar(&opts.issueID, "issue", "", "issue whose groups to list or create")
	flags.StringVar(&opts.groupID, "group", "", "group to join and chat in")
	flags.StringVar(&opts.createGroup, "create", "", "create a group with this name for --issue and join it")
	flags.StringVar(&opts.mode, "mode", cfg.ChatMode, "message delivery: poll or stream")
	flags.DurationVar(&opts.interval, "interval", cfg.ChatPollInterval, "poll interval for --mode=poll")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	if opts.groupID == "" && opts.issueID == "" {
		flags.Usage()
		return opts, errors.New("--group or --issue is required")
	}
	if opts.createGroup != "" && opts.issueID == "" {
		return opts, errors.New("--create requires --issue")
	}
	if err := config.ValidateMode(opts.mode); err != nil {
		return opts, fmt.Errorf("--mode: %w", err)
	}
	return opts, nil
}

// printer сериализует вывод из горутин получения сообщений и ввода
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, line)
}

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	opts, err := parseFlags(cfg, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(opts.logLevel, logger.WithText(), logger.WithOutput(os.Stderr))
	out := &printer{out: os.Stdout}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log, out, os.Stdin); err != nil {
		out.Println(renderError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, opts options, log *logrus.Logger, out *printer, in io.Reader) error {
	api := client.New(opts.apiURL, cfg.RequestTimeout, client.WithLogger(log))

	sess, err := session.Establish(ctx, api, opts.name)
	if err != nil {
		return err
	}
	api = api.WithSession(sess.UserID())
	out.Println(renderSystem("signed in as %s", sess.Username()))

	groupID, err := resolveGroup(ctx, api, opts, sess, out)
	if err != nil || groupID == "" {
		return err
	}

	group, err := api.JoinGroup(ctx, groupID, sess.UserID())
	if err != nil {
		return fmt.Errorf("failed to join group: %w", err)
	}
	out.Println(renderSystem("joined %s (%d members). %s to leave, %s to exit", group.Name, len(group.Members), commandLeave, commandQuit))

	room := chatsync.NewRoom(group.ID, api, log)
	room.Subscribe(func(msg *models.ChatMessage) {
		out.Println(renderMessage(msg, sess.UserID()))
	})
	if err := room.Load(ctx); err != nil {
		out.Println(renderError(err))
	}
	if err := room.Follow(ctx, opts.mode, opts.interval); err != nil {
		return err
	}
	defer room.Stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.TrimSpace(line) {
			case "":
				continue
			case commandQuit:
				return nil
			case commandLeave:
				if _, err := api.LeaveGroup(ctx, group.ID, sess.UserID()); err != nil {
					out.Println(renderError(err))
					continue
				}
				out.Println(renderSystem("left %s", group.Name))
				return nil
			}

			if _, err := room.Send(ctx, sess, line); err != nil {
				out.Println(renderError(err))
			}
		}
	}
}

// resolveGroup возвращает группу из флагов, создавая ее при --create.
// Без --group и --create печатает группы проблемы и возвращает пустой id
func resolveGroup(ctx context.Context, api *client.Client, opts options, sess session.Session, out *printer) (string, error) {
	if opts.groupID != "" {
		return opts.groupID, nil
	}

	issue, err := api.GetIssue(ctx, opts.issueID)
	if err != nil {
		return "", fmt.Errorf("failed to load issue: %w", err)
	}
	out.Println(renderIssue(issue))

	if opts.createGroup != "" {
		group, err := api.CreateGroup(ctx, issue.ID, opts.createGroup, sess.UserID())
		if err != nil {
			return "", fmt.Errorf("failed to create group: %w", err)
		}
		return group.ID, nil
	}

	groups, err := api.ListGroups(ctx, issue.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list groups: %w", err)
	}
	if len(groups) == 0 {
		out.Println(renderSystem("no groups yet, start one with --create <name>"))
		return "", nil
	}
	for _, g := range groups {
		out.Println(renderGroup(g))
	}
	out.Println(renderSystem("pick one with --group <id>"))
	return "", nil
}
