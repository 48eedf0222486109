package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/biz/repo"
	"github.com/acheronbot/acheron/internal/biz/usecase"
	"github.com/acheronbot/acheron/internal/conf"
)

// Router is the per-event orchestrator: it records the message, resolves
// the effective configuration, and takes either the command path or the
// chat-mode path. Events are expected to arrive one at a time (the server
// drains them from a single consumer loop), so no locking is needed here.
type Router struct {
	store    repo.StoreRepo
	sender   repo.MessageRepo
	registry *Registry
	loader   *conf.BotConfigLoader

	prefixUC *usecase.PrefixUsecase
	replyUC  *usecase.ReplyUsecase

	replier        repo.ReplierRepo // optional model-backed replier
	msgLog         *MessageLog
	requestRestart func()

	sleep func(time.Duration) // typing delay, swappable in tests
}

// NewRouter creates a new router
func NewRouter(store repo.StoreRepo, sender repo.MessageRepo, registry *Registry, loader *conf.BotConfigLoader) *Router {
	return &Router{
		store:    store,
		sender:   sender,
		registry: registry,
		loader:   loader,
		prefixUC: usecase.NewPrefixUsecase(store),
		replyUC:  usecase.NewReplyUsecase(),
		sleep:    time.Sleep,
	}
}

// SetReplier sets an optional model-backed replier for chat mode.
// The pattern generator remains the fallback.
func (r *Router) SetReplier(replier repo.ReplierRepo) {
	r.replier = replier
}

// SetMessageLog sets the append-only message log
func (r *Router) SetMessageLog(l *MessageLog) {
	r.msgLog = l
}

// SetRestartFunc sets the graceful-restart signal used by the restart command
func (r *Router) SetRestartFunc(f func()) {
	r.requestRestart = f
}

// HandleEvent processes one inbound message event to completion
func (r *Router) HandleEvent(ctx context.Context, ev *domain.Event) {
	// Ingest guards: self-originated or textless events are dropped
	if ev == nil || ev.SenderSelf || ev.ChatID == "" {
		return
	}
	text := strings.TrimSpace(ev.Text())
	if text == "" {
		return
	}

	if r.msgLog != nil {
		if err := r.msgLog.Append(ev.ChatID, text); err != nil {
			fmt.Printf("[Router] Failed to append message log: %v\n", err)
		}
	}

	// Update usage stats for the attributing identity. A store failure is
	// logged and skipped; the event still gets processed.
	if err := r.store.RecordMessage(ctx, ev.Actor(), ev.SenderName); err != nil {
		fmt.Printf("[Router] Record message failed: %v\n", err)
	}

	// Reload config fresh for every event so live edits apply immediately
	cfg, err := r.loader.Load()
	if err != nil {
		fmt.Printf("[Router] Config unreadable, using defaults: %v\n", err)
	}

	prefix := r.prefixUC.Resolve(ctx, ev.ChatID, ev.Participant, cfg.Prefix)

	if strings.HasPrefix(text, prefix) {
		r.dispatchCommand(ctx, ev, cfg, prefix, text)
		return
	}

	if !cfg.ChatMode {
		return
	}
	r.chatReply(ctx, ev, cfg, text)
}

func (r *Router) dispatchCommand(ctx context.Context, ev *domain.Event, cfg *conf.BotConfig, prefix, text string) {
	body := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if body == "" {
		return
	}

	fields := strings.Fields(body)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, ok := r.registry.Lookup(name)
	if !ok {
		notice := fmt.Sprintf("Unknown command. Use %shelp to list commands.", prefix)
		if err := r.sender.SendText(ctx, ev.ChatID, notice, ev.MsgID); err != nil {
			fmt.Printf("[Router] Failed to send unknown-command notice: %v\n", err)
		}
		return
	}

	if cmd.OwnerOnly && cfg.Owner != ev.Actor() {
		if err := r.sender.SendText(ctx, ev.ChatID, "⚠️ You are not authorized to use this command.", ev.MsgID); err != nil {
			fmt.Printf("[Router] Failed to send authorization notice: %v\n", err)
		}
		return
	}

	cc := &CommandContext{
		Sender:         r.sender,
		Store:          r.store,
		Event:          ev,
		ChatID:         ev.ChatID,
		Args:           args,
		Config:         cfg,
		ConfigLoader:   r.loader,
		Prefix:         prefix,
		Registry:       r.registry,
		RequestRestart: r.requestRestart,
	}

	if err := r.invoke(ctx, cmd, cc); err != nil {
		fmt.Printf("[Router] Command %s failed: %v\n", name, err)
		if sendErr := r.sender.SendText(ctx, ev.ChatID, "⚠️ Command execution failed.", ev.MsgID); sendErr != nil {
			fmt.Printf("[Router] Failed to send failure notice: %v\n", sendErr)
		}
	}
}

// invoke runs a handler, converting a panic into an error so a broken
// command can never take down the event loop
func (r *Router) invoke(ctx context.Context, cmd *Command, cc *CommandContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return cmd.Handler(ctx, cc)
}

func (r *Router) chatReply(ctx context.Context, ev *domain.Event, cfg *conf.BotConfig, text string) {
	// Presence signals are cosmetic; failures are swallowed
	_ = r.sender.SetPresence(ctx, ev.ChatID, repo.PresenceComposing)
	r.sleep(cfg.TypingDelay())
	_ = r.sender.SetPresence(ctx, ev.ChatID, repo.PresenceAvailable)

	mood := cfg.EffectiveMood()

	replyText := ""
	if r.replier != nil {
		out, err := r.replier.Reply(ctx, text, mood)
		if err != nil {
			fmt.Printf("[Router] Replier error, falling back: %v\n", err)
		} else {
			replyText = out
		}
	}
	if replyText == "" {
		replyText = r.replyUC.Generate(text, mood)
	}

	if err := r.sender.SendText(ctx, ev.ChatID, replyText, ev.MsgID); err != nil {
		fmt.Printf("[Router] Failed to send chat reply: %v\n", err)
	}
}

// HandleGroupUpdate records every participant of a membership change,
// regardless of the action type
func (r *Router) HandleGroupUpdate(ctx context.Context, gu *domain.GroupUpdate) {
	if gu == nil {
		return
	}
	for _, jid := range gu.Participants {
		if jid == "" {
			continue
		}
		if err := r.store.EnsureUser(ctx, jid, ""); err != nil {
			fmt.Printf("[Router] Ensure user %s failed: %v\n", jid, err)
		}
	}
	fmt.Printf("[Router] Group update (%s) recorded for %d participant(s) in %s\n",
		gu.Action, len(gu.Participants), gu.GroupID)
}
