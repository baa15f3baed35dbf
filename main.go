package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ghost_blog_agent/generator"
	"ghost_blog_agent/publisher"
	"ghost_blog_agent/server"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ghost-blog-agent",
	Short: "AI blog pipeline publishing drafts to Ghost",
	Long: `Orchestrates Perplexity (research), Claude (writing and social copy), and
DALL-E (header image) to produce a blog draft, then pushes it to a Ghost
instance via its admin API.`,
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the pipeline for a topic (or a YAML batch file)",
	RunE:  runGenerate,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON web API",
	RunE:  runServe,
}

var (
	topic           string
	tone            string
	keywords        string
	suggestKeywords bool
	styleFile       string
	contextFile     string
	contextURL      string
	audioFile       string
	batchFile       string
	doPublish       bool
	tags            []string
	serveAddr       string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.json", "path to config.json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")

	generateCmd.Flags().StringVar(&topic, "topic", "", "blog topic")
	generateCmd.Flags().StringVar(&tone, "tone", "Conversational", fmt.Sprintf("tone, one of: %s", strings.Join(generator.Tones(), ", ")))
	generateCmd.Flags().StringVar(&keywords, "keywords", "", "target SEO keywords, comma separated")
	generateCmd.Flags().BoolVar(&suggestKeywords, "suggest-keywords", false, "ask the researcher for keywords when none are given")
	generateCmd.Flags().StringVar(&styleFile, "style-file", "", "path to a writing-style sample")
	generateCmd.Flags().StringVar(&contextFile, "context-file", "", "path to a text/markdown context file")
	generateCmd.Flags().StringVar(&contextURL, "context-url", "", "URL to fetch as context (HTML or PDF)")
	generateCmd.Flags().StringVar(&audioFile, "audio-file", "", "path to an audio file to transcribe as context")
	generateCmd.Flags().StringVar(&batchFile, "file", "", "YAML file with a list of topics to process")
	generateCmd.Flags().BoolVar(&doPublish, "publish", false, "publish the draft to Ghost after generation")
	generateCmd.Flags().StringSliceVar(&tags, "tags", nil, "tags for the published draft")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "http listen address (overrides config.server_addr)")

	rootCmd.AddCommand(generateCmd, serveCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, agent, fetcher, pub, err := buildPipeline()
	if err != nil {
		return err
	}

	srv, err := server.New(agent, fetcher, pub, log.Default())
	if err != nil {
		return err
	}

	listen := cfg.ServerAddr
	if serveAddr != "" {
		listen = serveAddr
	}
	if listen == "" {
		listen = ":8080"
	}
	log.Printf("Starting web server on %s", listen)
	return http.ListenAndServe(listen, srv.Routes())
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if batchFile != "" {
		return runBatch(cmd.Context(), batchFile)
	}
	if topic == "" {
		return fmt.Errorf("--topic or --file is required")
	}

	cfg, agent, fetcher, pub, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	contextResult, err := loadContext(ctx, cfg, fetcher)
	if err != nil {
		return err
	}

	styleSample := ""
	if styleFile != "" {
		data, err := os.ReadFile(styleFile)
		if err != nil {
			return err
		}
		styleSample = string(data)
	}

	wf, err := agent.Run(ctx, generator.RunRequest{
		Topic:           topic,
		Tone:            tone,
		StyleSample:     styleSample,
		Keywords:        keywords,
		SuggestKeywords: suggestKeywords,
		Context:         contextResult,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(wf.Draft, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !doPublish {
		return nil
	}
	return publishWorkflow(ctx, pub, wf, tags)
}

// batchItem is one entry in a --file topics YAML list.
type batchItem struct {
	Topic    string   `yaml:"topic"`
	Tone     string   `yaml:"tone"`
	Keywords string   `yaml:"keywords"`
	Tags     []string `yaml:"tags"`
}

func runBatch(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var items []batchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(items) == 0 {
		return fmt.Errorf("%s contains no topics", path)
	}

	_, agent, _, pub, err := buildPipeline()
	if err != nil {
		return err
	}

	log.Printf("Processing %d topics...", len(items))
	failed := 0
	for i, item := range items {
		log.Printf("[%d/%d] %s", i+1, len(items), item.Topic)
		wf, err := agent.Run(ctx, generator.RunRequest{
			Topic:    item.Topic,
			Tone:     item.Tone,
			Keywords: item.Keywords,
		})
		if err == nil && doPublish {
			err = publishWorkflow(ctx, pub, wf, item.Tags)
		}
		if err != nil {
			failed++
			log.Printf("✗ Failed %s: %v", item.Topic, err)
			continue
		}
		log.Printf("✓ Done: %s", wf.Draft.Title)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d topics failed", failed, len(items))
	}
	return nil
}

func publishWorkflow(ctx context.Context, pub *publisher.Publisher, wf *generator.Workflow, tags []string) error {
	result, err := pub.PublishDraft(ctx, publisher.DraftPost{
		Title:           wf.Draft.Title,
		HTML:            wf.Draft.HTMLContent,
		Excerpt:         wf.Excerpt(),
		MetaTitle:       wf.Draft.MetaTitle,
		MetaDescription: wf.Draft.MetaDescription,
		FeatureImage:    wf.ImageURL,
		Tags:            tags,
	})
	if err != nil {
		return err
	}
	log.Printf("Draft created: %s", result.PostURL)
	return nil
}

func loadContext(ctx context.Context, cfg publisher.Config, fetcher *generator.ContextFetcher) (*generator.ContextResult, error) {
	switch {
	case contextFile != "":
		return fetcher.FromFile(contextFile)
	case contextURL != "":
		return fetcher.Fetch(ctx, contextURL)
	case audioFile != "":
		transcriber, err := generator.NewTranscriber(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(audioFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		text, err := transcriber.Transcribe(ctx, f)
		if err != nil {
			// Transcription is a context enrichment; degrade instead of
			// aborting the whole run.
			log.Printf("[WARN] transcription failed, continuing without context: %v", err)
			return nil, nil
		}
		return &generator.ContextResult{Text: text}, nil
	}
	return nil, nil
}

func buildPipeline() (publisher.Config, *generator.Agent, *generator.ContextFetcher, *publisher.Publisher, error) {
	cfg, err := publisher.LoadConfig(configPath)
	if err != nil {
		return publisher.Config{}, nil, nil, nil, err
	}

	researcher, err := generator.NewOpenAILLM(cfg.PerplexityAPIKey, "https://api.perplexity.ai", cfg.ResearchModel())
	if err != nil {
		return publisher.Config{}, nil, nil, nil, err
	}
	writer, err := generator.NewAnthropicLLM(cfg.AnthropicAPIKey, cfg.WriterModel())
	if err != nil {
		return publisher.Config{}, nil, nil, nil, err
	}
	artist, err := generator.NewDallEArtist(cfg.OpenAIAPIKey, cfg.ImageModel())
	if err != nil {
		return publisher.Config{}, nil, nil, nil, err
	}

	agent, err := generator.NewAgent(researcher, writer, artist, verbose, log.Default())
	if err != nil {
		return publisher.Config{}, nil, nil, nil, err
	}

	pub, err := publisher.New(cfg, nil, verbose, log.Default())
	if err != nil {
		return publisher.Config{}, nil, nil, nil, err
	}

	fetcher := generator.NewContextFetcher(nil, cfg.AnthropicAPIKey)
	return cfg, agent, fetcher, pub, nil
}
