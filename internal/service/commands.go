package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/biz/repo"
)

// RegisterBuiltins registers the fixed built-in command set
func RegisterBuiltins(reg *Registry) {
	reg.Register(&Command{
		Name:        "help",
		Description: "Lists available commands",
		Handler:     helpCommand,
	})
	reg.Register(&Command{
		Name:        "ping",
		Description: "Replies with Pong",
		Handler:     pingCommand,
	})
	reg.Register(&Command{
		Name:        "about",
		Description: "Short about text",
		Handler:     aboutCommand,
	})
	reg.Register(&Command{
		Name:        "seen",
		Description: "Tells when Acheron last saw a user. Usage: !seen <jid|me>",
		Handler:     seenCommand,
	})
	reg.Register(&Command{
		Name:        "stats",
		Description: "Shows bot stats and top active users",
		Handler:     statsCommand,
	})
	reg.Register(&Command{
		Name:        "mood",
		Description: "Set or view Acheron mood. Usage: !mood [calm|cold|cryptic]",
		OwnerOnly:   true,
		Handler:     moodCommand,
	})
	reg.Register(&Command{
		Name:        "chat",
		Description: "Toggle chat mode on/off (offline)",
		OwnerOnly:   true,
		Handler:     chatCommand,
	})
	reg.Register(&Command{
		Name:        "prefix",
		Description: "Change command prefix. Usage: !prefix <new> OR !prefix global <new>",
		Handler:     prefixCommand,
	})
	reg.Register(&Command{
		Name:        "restart",
		Description: "Restart Acheron (owner-only)",
		OwnerOnly:   true,
		Handler:     restartCommand,
	})
}

func reply(ctx context.Context, cc *CommandContext, text string) error {
	return cc.Sender.SendText(ctx, cc.ChatID, text, cc.Event.MsgID)
}

func helpCommand(ctx context.Context, cc *CommandContext) error {
	lines := []string{"*Acheron — Commands*", ""}
	for _, cmd := range cc.Registry.List() {
		lines = append(lines, fmt.Sprintf("%s%s - %s", cc.Prefix, cmd.Name, cmd.Description))
	}
	return reply(ctx, cc, strings.Join(lines, "\n"))
}

func pingCommand(ctx context.Context, cc *CommandContext) error {
	return reply(ctx, cc, "🏓 Pong!")
}

func aboutCommand(ctx context.Context, cc *CommandContext) error {
	return reply(ctx, cc, "I am Acheron — your dark companion.")
}

func seenCommand(ctx context.Context, cc *CommandContext) error {
	if len(cc.Args) == 0 {
		return reply(ctx, cc, "Usage: !seen <jid|me>")
	}

	target := cc.Args[0]
	if target == "me" {
		target = cc.Event.Actor()
	}

	user, err := cc.Store.GetUser(ctx, target)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return reply(ctx, cc, fmt.Sprintf("I have not seen %s.", target))
	}

	return reply(ctx, cc, fmt.Sprintf("%s (%s) — last seen: %s, messages: %d",
		user.PushName, user.JID, user.LastSeen.Format(time.RFC3339), user.MessageCount))
}

func statsCommand(ctx context.Context, cc *CommandContext) error {
	stats, err := cc.Store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	top, err := cc.Store.GetTopUsers(ctx, 5)
	if err != nil {
		return fmt.Errorf("get top users: %w", err)
	}

	topText := "No users yet."
	if len(top) > 0 {
		var lines []string
		for i, u := range top {
			lines = append(lines, fmt.Sprintf("%d. %s — %d messages (%s)", i+1, u.PushName, u.MessageCount, u.JID))
		}
		topText = strings.Join(lines, "\n")
	}

	text := strings.Join([]string{
		"*Acheron Stats*",
		fmt.Sprintf("Total messages seen: %d", stats.TotalMessages),
		fmt.Sprintf("Known users: %d", stats.UsersCount),
		"",
		"*Top users*",
		topText,
	}, "\n")
	return reply(ctx, cc, text)
}

func moodCommand(ctx context.Context, cc *CommandContext) error {
	if len(cc.Args) == 0 {
		return reply(ctx, cc, fmt.Sprintf("Current mood: %s", cc.Config.EffectiveMood()))
	}

	arg := strings.ToLower(cc.Args[0])
	if !domain.Mood(arg).IsValid() {
		return reply(ctx, cc, "Invalid mood. Options: calm, cold, cryptic")
	}

	cc.Config.Mood = arg
	if err := cc.ConfigLoader.Save(cc.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return reply(ctx, cc, fmt.Sprintf("Mood set to %s", arg))
}

func chatCommand(ctx context.Context, cc *CommandContext) error {
	mode := ""
	if len(cc.Args) > 0 {
		mode = strings.ToLower(cc.Args[0])
	}
	if mode != "on" && mode != "off" {
		return reply(ctx, cc, "Usage: !chat on | !chat off")
	}

	cc.Config.ChatMode = mode == "on"
	if err := cc.ConfigLoader.Save(cc.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return reply(ctx, cc, fmt.Sprintf("Chat mode set to %v", cc.Config.ChatMode))
}

func prefixCommand(ctx context.Context, cc *CommandContext) error {
	if len(cc.Args) == 0 {
		return reply(ctx, cc, "Usage: !prefix <new> OR !prefix global <new>")
	}

	if cc.Args[0] == "global" {
		// Only the owner may set the global prefix
		if cc.Config.Owner != cc.Event.Actor() {
			return reply(ctx, cc, "Only owner can set global prefix.")
		}
		if len(cc.Args) < 2 || cc.Args[1] == "" {
			return reply(ctx, cc, "Provide a new prefix.")
		}
		newPrefix := cc.Args[1]
		if err := cc.Store.SetPrefixFor(ctx, repo.GlobalScope, newPrefix); err != nil {
			return fmt.Errorf("set global prefix: %w", err)
		}
		return reply(ctx, cc, fmt.Sprintf("Global prefix set to %q", newPrefix))
	}

	// Per-chat prefix, open to anyone in the chat
	newPrefix := cc.Args[0]
	if err := cc.Store.SetPrefixFor(ctx, cc.ChatID, newPrefix); err != nil {
		return fmt.Errorf("set chat prefix: %w", err)
	}
	return reply(ctx, cc, fmt.Sprintf("Prefix for this chat set to %q", newPrefix))
}

func restartCommand(ctx context.Context, cc *CommandContext) error {
	if err := reply(ctx, cc, "Restarting Acheron..."); err != nil {
		return err
	}
	if cc.RequestRestart != nil {
		cc.RequestRestart()
	}
	return nil
}
