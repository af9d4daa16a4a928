// Command audit prints recent entries of the enforcement journal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"aufseher/internal/config"
	"aufseher/internal/logging"
	"aufseher/internal/model"
	"aufseher/internal/storage"
)

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", config.DefaultDatabasePath), "path to the journal database")
	chatID := flag.Int64("chat", 0, "only show actions in this chat (0 shows all chats)")
	limit := flag.Int("n", 20, "number of actions to show")
	flag.Parse()

	log := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"))

	store, err := storage.NewSQLite(*dbPath)
	if err != nil {
		log.Error("open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	actions, err := store.ListActions(context.Background(), *chatID, *limit)
	if err != nil {
		log.Error("list actions", "error", err)
		os.Exit(1)
	}
	if err := writeActions(os.Stdout, actions); err != nil {
		log.Error("write actions", "error", err)
		os.Exit(1)
	}
}

func writeActions(w io.Writer, actions []model.Action) error {
	if len(actions) == 0 {
		_, err := fmt.Fprintln(w, "No enforcement actions recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCHAT\tUSER\tSURFACE\tVERDICT\tSTEPS\tERROR")
	for _, a := range actions {
		fmt.Fprintf(tw, "%s\t%s (%d)\t%s (%d)\t%s\t%s\t%s\t%s\n",
			a.CreatedAt.Format("2006-01-02 15:04"),
			model.Chat{Title: a.ChatTitle}.DisplayTitle(), a.ChatID,
			a.UserName, a.UserID,
			a.Surface,
			verdict(a),
			steps(a),
			a.Error,
		)
	}
	return tw.Flush()
}

func verdict(a model.Action) string {
	if a.Source == model.SourceClassifier {
		return "classifier"
	}
	if a.Normalized {
		return a.Rule + " (normalized)"
	}
	return a.Rule
}

func steps(a model.Action) string {
	var done []string
	if a.Deleted {
		done = append(done, "deleted")
	}
	if a.Banned {
		done = append(done, "banned")
	}
	if a.Notified {
		done = append(done, "notified")
	}
	if len(done) == 0 {
		return "-"
	}
	return strings.Join(done, ",")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
