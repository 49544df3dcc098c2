package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/carson-networks/finance-assistant/internal/aggregate"
	"github.com/carson-networks/finance-assistant/internal/apperr"
	"github.com/carson-networks/finance-assistant/internal/chat"
	"github.com/carson-networks/finance-assistant/internal/present"
	"github.com/carson-networks/finance-assistant/internal/speech"
)

const progressInterval = 200 * time.Millisecond

func (c *client) chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "talk to the assistant by voice (--audio) or text (--say)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "audio", Usage: "16kHz 16-bit mono WAV file to transcribe, - for stdin"},
			&cli.StringFlag{Name: "say", Usage: "send this text instead of speaking"},
			&cli.DurationFlag{Name: "pace", Usage: "delay between audio frames, 100ms approximates live capture"},
		},
		Action: c.chat,
	}
}

func (c *client) chat(ctx *cli.Context) error {
	const op = "finance-client.chat"

	audio, say := ctx.String("audio"), strings.TrimSpace(ctx.String("say"))
	if audio == "" && say == "" {
		return apperr.Validation(op, errors.New("one of --audio or --say is required"))
	}

	controller := chat.NewController(chat.Options{
		Recognizer: &speech.AzureRecognizer{
			Audio:  c.audioSource(audio),
			Pace:   ctx.Duration("pace"),
			Logger: c.logger,
		},
		Credentials:    speech.Credentials{SubscriptionKey: c.env.SpeechKey, Region: c.env.SpeechRegion},
		Assistant:      c.assistant,
		Refresher:      c.refresher,
		Timeout:        c.env.AssistantTimeout,
		RefreshTimeout: c.env.RequestTimeout,
		Logger:         c.logger,
	})

	w := ctx.App.Writer
	shown := 0
	var err error
	if audio != "" {
		shown, err = c.listen(ctx.Context, w, controller)
	} else {
		err = controller.Submit(ctx.Context, say)
	}

	view := controller.View()
	view.Messages = view.Messages[min(shown, len(view.Messages)):]
	view.Partial = ""
	// main prints the error itself
	view.Err = nil
	present.Conversation(w, view)
	if err != nil {
		return err
	}

	if view.Closed {
		fmt.Fprintln(w)
		present.Dashboard(w, aggregate.Summarize(c.store.Snapshot(), time.Now()))
	}
	return nil
}

// listen streams audio until it runs out or the user presses Ctrl-C, echoing
// partial and final transcripts, then dispatches. It returns how many
// messages it already printed.
func (c *client) listen(ctx context.Context, w io.Writer, controller *chat.Controller) (int, error) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	if err := controller.StartListening(ctx); err != nil {
		return 0, err
	}
	fmt.Fprintln(w, "Escuchando… (Ctrl-C para terminar)")

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	progress := &progressPrinter{w: w}
	done := controller.ListeningDone()
wait:
	for {
		select {
		case <-done:
			break wait
		case <-interrupt:
			break wait
		case <-ctx.Done():
			break wait
		case <-ticker.C:
			progress.render(controller.View())
		}
	}
	progress.render(controller.View())

	err := controller.StopListening(ctx)
	return progress.shown, err
}

type progressPrinter struct {
	w       io.Writer
	partial string
	shown   int
}

func (p *progressPrinter) render(view chat.View) {
	for ; p.shown < len(view.Messages); p.shown++ {
		m := view.Messages[p.shown]
		if m.Speaker != chat.SpeakerUser {
			break
		}
		fmt.Fprintf(p.w, "[%s] Tú: %s\n", m.ProducedAt.Format("15:04"), m.Text)
		p.partial = ""
	}
	if view.Partial != "" && view.Partial != p.partial {
		fmt.Fprintf(p.w, "… %s\n", view.Partial)
		p.partial = view.Partial
	}
}

func (c *client) audioSource(path string) speech.AudioSource {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if path == "-" {
			if rc, ok := c.stdin.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(c.stdin), nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open audio: %w", err)
		}
		return f, nil
	}
}
