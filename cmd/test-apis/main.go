package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/xeo-app/xeo-backend/internal/config"
	"github.com/xeo-app/xeo-backend/internal/llm"
	"github.com/xeo-app/xeo-backend/internal/sources"
)

func main() {
	handle := flag.String("handle", "XDevelopers", "account to fetch")
	postURL := flag.String("post", "", "optional post URL to resolve")
	flag.Parse()

	fmt.Println("🔍 XEO - API Connectivity Test")
	fmt.Println("==============================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	fmt.Println("\n📡 Testing scrape API...")
	fmt.Println(strings.Repeat("-", 40))

	sela := sources.NewSelaClient(sources.SelaOptions{
		BaseURL:       cfg.SelaBaseURL,
		APIKey:        cfg.SelaAPIKey,
		PrincipalID:   cfg.SelaPrincipalID,
		RateLimit:     cfg.SelaRateLimit,
		Burst:         cfg.SelaBurst,
		ScrapeTimeout: cfg.SelaScrapeTimeout,
	})
	testProfile(ctx, sela, *handle, cfg.ProfilePostCount)
	if *postURL != "" {
		testPost(ctx, sela, *postURL)
	}

	fmt.Println("\n🤖 Testing LLM provider...")
	fmt.Println(strings.Repeat("-", 40))
	testLLM(ctx, cfg)

	fmt.Println("\n✅ API connectivity test completed!")
}

func testProfile(ctx context.Context, source *sources.SelaClient, handle string, count int) {
	fmt.Printf("🔸 Fetching @%s... ", handle)

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing SELA_API_KEY or SELA_API_BASE_URL)\n")
		return
	}

	p, err := source.FetchProfile(ctx, handle, count)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d posts)\n", len(p.Tweets))
	fmt.Printf("   📊 avg likes %.1f, avg views %.1f, media ratio %.2f\n", p.AvgLikes(), p.AvgViews(), p.MediaRatio())
}

func testPost(ctx context.Context, source *sources.SelaClient, postURL string) {
	fmt.Printf("🔸 Resolving %s... ", postURL)

	t, err := source.FetchPost(ctx, postURL)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}
	fmt.Printf("✅ SUCCESS (@%s, %d likes, %d replies)\n", t.Username, t.Likes, t.Replies)
}

func testLLM(ctx context.Context, cfg *config.Config) {
	fmt.Printf("🔸 Provider %s... ", cfg.LLMProvider)

	client, err := llm.New(llm.Options{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}
	if client == nil {
		fmt.Printf("⚠️  DISABLED (LLM_PROVIDER=none)\n")
		return
	}

	out, err := client.Complete(ctx, "Reply with one short sentence.", "Say hello to the XEO team.")
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}
	fmt.Printf("✅ SUCCESS\n   📝 %q\n", out)
}
