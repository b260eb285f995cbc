package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"bomgen/internal/fixture"
	"bomgen/internal/formula"
	"bomgen/internal/wire"
)

var watchAddr string

var watchCmd = &cobra.Command{
	Use:   "watch <fixture-file>",
	Short: "Serve live re-evaluation of a fixture's scenarios over a websocket as the file changes",
	Long: `watch polls a YAML fixture file for modifications and, on every
change, re-evaluates each scenario and broadcasts the results as JSON
over a websocket at /ws — useful for a BOM authoring UI that wants to
show formula results update live while a fixture is edited.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchAddr, "addr", ":8787", "address to serve the watch websocket on")
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func runWatch(_ *cobra.Command, args []string) error {
	path := args[0]
	hub := newWatchHub()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("watch: upgrade failed: %v", err)
			return
		}
		hub.add(conn)
	})

	go pollAndBroadcast(path, hub)

	fmt.Printf("watching %s, serving ws://%s/ws\n", path, watchAddr)
	return http.ListenAndServe(watchAddr, nil)
}

// watchHub fans a broadcast message out to every connected client,
// dropping ones that error (closed by the peer). conns is owned
// exclusively by run's goroutine: both add and broadcast hand off
// through a channel rather than touching conns directly, since
// pollAndBroadcast calls broadcast from a different goroutine than the
// one registering new connections.
type watchHub struct {
	register chan *websocket.Conn
	outbox   chan []byte
	conns    []*websocket.Conn
}

func newWatchHub() *watchHub {
	h := &watchHub{
		register: make(chan *websocket.Conn),
		outbox:   make(chan []byte),
	}
	go h.run()
	return h
}

func (h *watchHub) run() {
	for {
		select {
		case conn := <-h.register:
			h.conns = append(h.conns, conn)
		case msg := <-h.outbox:
			live := h.conns[:0]
			for _, conn := range h.conns {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					continue
				}
				live = append(live, conn)
			}
			h.conns = live
		}
	}
}

func (h *watchHub) add(conn *websocket.Conn) {
	h.register <- conn
}

func (h *watchHub) broadcast(msg []byte) {
	h.outbox <- msg
}

func pollAndBroadcast(path string, hub *watchHub) {
	var lastMod time.Time
	for {
		info, err := os.Stat(path)
		if err == nil && info.ModTime().After(lastMod) {
			lastMod = info.ModTime()
			if msg, err := evaluateFixtureToJSON(path); err != nil {
				log.Printf("watch: %v", err)
			} else {
				hub.broadcast(msg)
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func evaluateFixtureToJSON(path string) ([]byte, error) {
	doc, err := fixture.LoadFile(path)
	if err != nil {
		return nil, err
	}
	out := "["
	for i, sc := range doc.Scenarios {
		if i > 0 {
			out += ","
		}
		ctx := sc.Context()
		v, err := formula.Evaluate(sc.Formula, ctx, formula.Meta{})
		var body string
		if err != nil {
			body = fmt.Sprintf(`{"name":%q,"error":%q}`, sc.Name, err.Error())
		} else {
			encoded, encErr := wire.Encode(v)
			if encErr != nil {
				return nil, encErr
			}
			body = fmt.Sprintf(`{"name":%q,"value":%s,"value_type":%q}`, sc.Name, encoded, wire.Classify(v))
		}
		out += body
	}
	out += "]"
	return []byte(out), nil
}
