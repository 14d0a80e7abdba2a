// Command train manages the training store: the examples and templates
// the draft generator uses as context.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/draftpilot/outlook-autodraft/internal/completion"
	"github.com/draftpilot/outlook-autodraft/internal/scan"
	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
	"github.com/draftpilot/outlook-autodraft/internal/training"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	dir := os.Getenv("TRAINING_DIR")
	if dir == "" {
		dir = "."
	}

	store, err := training.Open(dir)
	if err != nil {
		fatal(err)
	}

	switch os.Args[1] {
	case "add-example":
		addExample(store, os.Args[2:])
	case "add-template":
		addTemplate(store, os.Args[2:])
	case "stats":
		stats(store)
	case "try":
		tryResponse(store, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func addExample(store *training.Store, args []string) {
	fs := flag.NewFlagSet("add-example", flag.ExitOnError)
	email := fs.String("email", "", "original email content")
	response := fs.String("response", "", "your response")
	emailType := fs.String("type", "general", "email type (inquiry/complaint/follow-up/request/general)")
	tone := fs.String("tone", "professional", "tone (professional/friendly/formal/casual)")
	points := fs.String("points", "", "comma-separated key points")
	fs.Parse(args)

	if *email == "" || *response == "" {
		fatal(fmt.Errorf("-email and -response are required"))
	}

	err := store.AddExample(training.Example{
		OriginalEmail: *email,
		Response:      *response,
		EmailType:     *emailType,
		Tone:          *tone,
		KeyPoints:     splitList(*points),
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("added %s example with %s tone\n", *emailType, *tone)
}

func addTemplate(store *training.Store, args []string) {
	fs := flag.NewFlagSet("add-template", flag.ExitOnError)
	name := fs.String("name", "", "template name")
	emailType := fs.String("type", "general", "email type")
	tone := fs.String("tone", "professional", "tone")
	text := fs.String("template", "", "template text with {variables}")
	variables := fs.String("variables", "", "comma-separated variable names")
	fs.Parse(args)

	if *name == "" || *text == "" {
		fatal(fmt.Errorf("-name and -template are required"))
	}

	err := store.AddTemplate(training.Template{
		Name:      *name,
		EmailType: *emailType,
		Tone:      *tone,
		Template:  *text,
		Variables: splitList(*variables),
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("added template %s\n", *name)
}

func stats(store *training.Store) {
	out, _ := json.MarshalIndent(store.Stats(), "", "  ")
	fmt.Println(string(out))
}

// tryResponse generates a response for pasted email content without
// touching any mailbox, so new examples can be vetted.
func tryResponse(store *training.Store, args []string) {
	fs := flag.NewFlagSet("try", flag.ExitOnError)
	email := fs.String("email", "", "email content to respond to")
	emailType := fs.String("type", "general", "email type")
	tone := fs.String("tone", "professional", "desired tone")
	age := fs.Int("age", 0, "age of the email in days")
	fs.Parse(args)

	if *email == "" {
		fatal(fmt.Errorf("-email is required"))
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		fatal(fmt.Errorf("OPENAI_API_KEY is required"))
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4"
	}

	category, _ := types.ParseCategory(*emailType)
	msg := types.Message{
		Subject:    "No Subject",
		Body:       *email,
		ReceivedAt: time.Now().AddDate(0, 0, -*age),
	}

	style := types.StyleDelayed
	if *age == 0 {
		style = types.StylePrompt
	}
	prompt := scan.BuildPrompt(msg, scan.Decision{Eligible: true, AgeDays: *age, Style: style}, category, *tone, store)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	client := completion.NewClient(apiKey)
	response, err := client.Complete(ctx, types.CompletionRequest{
		Model:       model,
		System:      "You are a professional email assistant that writes clear, polite, and professional email responses.",
		Prompt:      prompt,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		fatal(err)
	}

	fmt.Println(response)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: train <add-example|add-template|stats|try> [flags]")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
