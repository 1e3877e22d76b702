package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	plannerx "github.com/planweave/planweave/agent/agents/planner"
	"github.com/planweave/planweave/agent/archive"
	"github.com/planweave/planweave/agent/assemble"
	contractx "github.com/planweave/planweave/agent/contract"
	"github.com/planweave/planweave/agent/extract"
	memoryx "github.com/planweave/planweave/agent/memory"
	promptx "github.com/planweave/planweave/agent/prompt"
	"github.com/planweave/planweave/agent/roster"
	statex "github.com/planweave/planweave/agent/state"
	toolx "github.com/planweave/planweave/agent/tool"
	configx "github.com/planweave/planweave/pkg/config"
	_ "github.com/planweave/planweave/pkg/logger/autoload"
	openrouterx "github.com/planweave/planweave/pkg/openrouter"
	qstashx "github.com/planweave/planweave/pkg/qstash"
)

type AppConfig struct {
	SessionID    string `envconfig:"SESSION_ID" default:"local-session"`
	RosterPath   string `envconfig:"ROSTER_PATH"`
	ExamplesPath string `envconfig:"EXAMPLES_PATH"`

	// Optional integrations; each activates only when its primary setting
	// is present.
	UpstashRedisURL   string `envconfig:"UPSTASH_REDIS_URL"`
	UpstashRedisToken string `envconfig:"UPSTASH_REDIS_TOKEN"`
	ArchiveDSN        string `envconfig:"ARCHIVE_DSN"`
	QStashURL         string `envconfig:"QSTASH_URL"`
	QStashToken       string `envconfig:"QSTASH_TOKEN"`
	QStashDestination string `envconfig:"QSTASH_DESTINATION"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	agents, err := roster.Load(appCfg.RosterPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load roster")
	}
	examples, err := roster.LoadExamples(appCfg.ExamplesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load examples")
	}

	extractor, err := extract.New(roster.Names(agents))
	if err != nil {
		log.Fatal().Err(err).Msg("build extractor")
	}

	memories := make(map[string]contractx.Memory, len(agents)+1)
	memories[plannerx.PlannerMemoryName] = memoryx.NewStore()
	for _, a := range agents {
		memories[a.Name] = memoryx.NewStore()
	}

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	model, err := openrouterx.NewClient(*openRouterCfg, []*schema.ToolInfo{toolx.Info()})
	if err != nil {
		log.Fatal().Err(err).Msg("build model client")
	}

	var store statex.Store
	if appCfg.UpstashRedisURL != "" {
		redisStore, err := statex.NewUpstashRedisStore(statex.UpstashRedisConfig{
			URL:   appCfg.UpstashRedisURL,
			Token: appCfg.UpstashRedisToken,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("build conversation store")
		}
		store = redisStore
	}

	var pgArchive *archive.PostgresArchive
	var planArchive contractx.Archive
	if appCfg.ArchiveDSN != "" {
		pg, err := archive.New(archive.Config{DSN: appCfg.ArchiveDSN})
		if err != nil {
			log.Fatal().Err(err).Msg("build archive")
		}
		if err := pg.Init(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("init archive")
		}
		defer pg.Close()
		pgArchive = pg
		planArchive = pg
	}

	var notifier contractx.Notifier
	if appCfg.QStashURL != "" {
		client := qstashx.MustNew(qstashx.Config{
			URL:   appCfg.QStashURL,
			Token: appCfg.QStashToken,
		})
		notifier, err = qstashx.NewPlanNotifier(client, appCfg.QStashDestination)
		if err != nil {
			log.Fatal().Err(err).Msg("build notifier")
		}
	}

	planner, err := plannerx.New(
		store,
		model,
		memories,
		extractor,
		assemble.New(),
		promptx.MustLoadSet(),
		agents,
		examples,
		planArchive,
		notifier,
		plannerx.Config{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build planner")
	}

	shell := &repl{
		planner:   planner,
		store:     store,
		archive:   pgArchive,
		sessionID: appCfg.SessionID,
	}
	shell.run()
}

type repl struct {
	planner   *plannerx.Planner
	store     statex.Store
	archive   *archive.PostgresArchive
	sessionID string
}

func (r *repl) run() {
	fmt.Println("planweave interactive planner (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "quit", "exit":
			return
		case "help":
			printHelp()
			continue
		case "memory":
			if mem := r.planner.Memory(plannerx.PlannerMemoryName); mem != nil {
				fmt.Println(mem.Status())
				fmt.Println(mem.Read())
			}
			continue
		case "memory-clear":
			if mem := r.planner.Memory(plannerx.PlannerMemoryName); mem != nil {
				mem.Write("")
				fmt.Println("planner memory cleared")
			}
			continue
		case "history":
			r.printHistory()
			continue
		case "clear":
			r.clearConversation()
			continue
		}

		plan, record, err := r.planner.PlanTurn(context.Background(), r.sessionID, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printPlan(plan, record)
	}
}

func (r *repl) printHistory() {
	if r.archive == nil {
		fmt.Println("no archive configured (set ARCHIVE_DSN)")
		return
	}
	records, err := r.archive.RecentBySession(context.Background(), r.sessionID, 10)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("no plans recorded for this session yet")
		return
	}
	for _, rec := range records {
		fmt.Printf("[%s] %s (%d subtasks, role %s)\n",
			rec.CreatedAt.Format("2006-01-02 15:04"), rec.Query, rec.SubtaskCount, rec.TargetRole)
	}
}

func (r *repl) clearConversation() {
	if r.store == nil {
		fmt.Println("no conversation store configured (set UPSTASH_REDIS_URL)")
		return
	}
	if err := r.store.Delete(context.Background(), r.sessionID); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("conversation history cleared")
}

func printPlan(plan contractx.Plan, record contractx.PlanRecord) {
	if plan.Analysis != "" {
		fmt.Printf("\nAnalysis: %s\n", plan.Analysis)
	}
	fmt.Printf("Target role: %s\n\nPlan:\n", record.TargetRole)
	fmt.Print(extract.FormatNumbered(plan))
	if plan.Degraded {
		fmt.Println("(plan recovered from unstructured output)")
	}
	fmt.Println()
}

func printHelp() {
	fmt.Println(`commands:
  help          show this help
  memory        show planner memory status and content
  memory-clear  reset planner memory
  history       show recent recorded plans for this session
  clear         clear the stored conversation history
  quit          exit`)
}
