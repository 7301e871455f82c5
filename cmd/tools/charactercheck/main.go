// Command charactercheck inspects character documents and exercises the
// model gateway from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/chara-chat/backend/internal/config"
	"github.com/zhouzirui/chara-chat/backend/internal/service/ai"
	"github.com/zhouzirui/chara-chat/backend/internal/service/character"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	dir     string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "charactercheck",
		Short:         "Inspect character documents and test replies",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "character documents directory (default: CHARACTERS_DIR or docs/characters)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall request timeout")

	root.AddCommand(newListCmd(opts), newShowCmd(opts), newPromptCmd(opts), newSendCmd(opts))
	return root
}

func (o *options) store() (*character.FileStore, error) {
	dir := o.dir
	if dir == "" {
		dir = os.Getenv("CHARACTERS_DIR")
	}
	if dir == "" {
		dir = character.DefaultDir
	}
	s := character.NewOsFileStore(dir)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loadable characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.store()
			if err != nil {
				return err
			}
			summaries, err := s.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAVATAR\tCATCHPHRASES")
			for _, sum := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", sum.ID, sum.Name, sum.Avatar, len(sum.Catchphrase))
			}
			return w.Flush()
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the parsed profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.store()
			if err != nil {
				return err
			}
			p, err := s.FindProfile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newPromptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <id> <message>",
		Short: "Print the prompt that would be sent for a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.store()
			if err != nil {
				return err
			}
			p, err := s.FindProfile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ai.BuildPrompt(p, args[1]))
			return err
		},
	}
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <id> <message>",
		Short: "Send a message through the configured model gateway",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("配置加载失败: %w", err)
			}
			s, err := opts.store()
			if err != nil {
				return err
			}
			p, err := s.FindProfile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			svc := ai.NewServiceFromConfig(ctx, cfg.AI)
			started := time.Now()
			reply, err := svc.Reply(ctx, p, args[1])
			if err != nil {
				return err
			}

			log.Printf("reply received in %s", time.Since(started).Round(time.Millisecond))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
