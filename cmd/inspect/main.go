// Command inspect prints the rooms, messages and reports stored in a
// BadgerDB directory. The database is opened read-only so it can run next
// to a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"member-chat/domain"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	// INSPECT_COLOURS highlights system and deleted rows
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	what := flag.String("what", "rooms", "rooms, messages or reports")
	room := flag.String("room", "", "Restrict messages to one room id")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var header []string
	var rows [][]string
	switch *what {
	case "rooms":
		header = []string{"ID", "Type", "Name", "Created by", "Updated at"}
		rows, err = scan(db, "room:", func(r domain.Room) []string {
			name := ""
			if r.Name != nil {
				name = *r.Name
			}
			return []string{r.ID.String(), string(r.Type), name, r.CreatedBy, r.UpdatedAt.Format("2006-01-02 15:04:05")}
		})
	case "messages":
		prefix := "msg:"
		if *room != "" {
			prefix += *room + ":"
		}
		header = []string{"Room", "ID", "Sender", "Content", "Created at"}
		rows, err = scan(db, prefix, func(m domain.Message) []string {
			return messageRow(m, config.Colours)
		})
	case "reports":
		header = []string{"ID", "Reporter", "Category", "Status", "Free text"}
		rows, err = scan(db, "report:", func(r domain.Report) []string {
			return []string{r.ID.String(), r.ReporterID, string(r.Category), string(r.Status), r.FreeText}
		})
	default:
		log.Fatalf("Unknown -what %q", *what)
	}
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
	fmt.Printf("\n%d %s\n", len(rows), *what)
}

func messageRow(m domain.Message, colours bool) []string {
	sender := "system"
	if m.SenderID != nil {
		sender = *m.SenderID
	}
	content := ""
	if m.Content != nil {
		content = *m.Content
	}
	switch {
	case m.IsDeleted:
		content = "[deleted]"
		if colours {
			content = color.FgGray.Render(content)
		}
	case m.IsSystemMessage && colours:
		content = color.FgCyan.Render(content)
	}
	return []string{shortID(m.RoomID.String()), shortID(m.ID.String()), sender, content, m.CreatedAt.Format("2006-01-02 15:04:05")}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// scan decodes the JSON values under prefix. Rows that do not decode are
// reported and skipped.
func scan[T any](db *badger.DB, prefix string, toRow func(T) []string) ([][]string, error) {
	var rows [][]string
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				var value T
				if err := json.Unmarshal(v, &value); err != nil {
					fmt.Fprintf(os.Stderr, "Error decoding key %s: %v\n", key, err)
					return nil
				}
				rows = append(rows, toRow(value))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

