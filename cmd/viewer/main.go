// Command viewer prints persisted Owlery history from a Badger data
// directory without running the server. Useful for support: the group log
// and any direct thread can be dumped read-only while the server holds the
// lock.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/owlery", "Path to badger DB")
	prefix := flag.String("prefix", "msg:group:", "Key prefix to scan (msg:group: or msg:dm:{a}|{b}:)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Time", "Scope", "Sender", "To", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var m struct {
					Seq         uint64    `json:"seq"`
					Scope       string    `json:"scope"`
					SenderName  string    `json:"sender_name"`
					SenderID    string    `json:"sender_id"`
					RecipientID string    `json:"recipient_id"`
					Text        string    `json:"text"`
					CreatedAt   time.Time `json:"created_at"`
				}
				if err := json.Unmarshal(v, &m); err != nil {
					// Log and keep scanning instead of stopping the dump.
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				sender := m.SenderName
				if sender == "" {
					sender = m.SenderID
				}
				table.Append([]string{
					fmt.Sprintf("%d", m.Seq),
					m.CreatedAt.Format("2006-01-02 15:04:05"),
					m.Scope,
					sender,
					m.RecipientID,
					m.Text,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	color.Cyan.Printf("Prefix %s : %d message(s)\n\n", *prefix, count)
	table.Render()
}
