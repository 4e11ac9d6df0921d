package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joaofarinelli/we-crm-sub002/pkg/config"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// feedTables is the set of tables streamed to connected clients.
var feedTables = []string{
	messaging.TableLeads,
	messaging.TablePipelineColumns,
	messaging.TableFollowUps,
	messaging.TableAppointments,
	messaging.TableMeetings,
	messaging.TablePartners,
	messaging.TableScripts,
	messaging.TableProducts,
	messaging.TableProfiles,
	messaging.TableRoles,
}

// Feed is the WebSocket change feed. Each authenticated client gets
// the change notifications of its own company, nothing else.
type Feed struct {
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      *config.RealtimeConfig
	logger   *logger.Logger
}

// NewFeed creates a new websocket feed handler
func NewFeed(hub *Hub, cfg *config.RealtimeConfig, log *logger.Logger) *Feed {
	return &Feed{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin enforcement happens in the CORS layer; the feed
			// trusts the bearer token alone.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg:    cfg,
		logger: log,
	}
}

// ServeHTTP upgrades the connection and streams change notifications
// until the client disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		httputil.Error(w, r, errors.Forbidden("no company membership"))
		return
	}
	userID := httputil.GetUserID(r.Context())

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		f.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	merged := make(chan Notification, f.cfg.SendBuffer)
	done := make(chan struct{})
	cancels := make([]func(), 0, len(feedTables))
	for _, table := range feedTables {
		ch, cancel := f.hub.Subscribe(companyID, table)
		cancels = append(cancels, cancel)
		go func(ch <-chan Notification) {
			for {
				select {
				case n, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- n:
					case <-done:
						return
					default:
						// Feed buffer full; the client refetches on
						// the next delivered notification.
					}
				case <-done:
					return
				}
			}
		}(ch)
	}
	defer func() {
		close(done)
		for _, cancel := range cancels {
			cancel()
		}
	}()

	f.logger.Info().
		Str("company_id", companyID).
		Str("user_id", userID).
		Msg("feed client connected")

	// Reader: only pongs and close frames are expected
	go func() {
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(3 * f.cfg.PingInterval))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(3 * f.cfg.PingInterval))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	ping := time.NewTicker(f.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case n := <-merged:
			if n.CompanyID != companyID {
				// Cross-company leak would be a bug in the hub keying;
				// never forward, loudly log.
				f.logger.Error().
					Str("expected_company", companyID).
					Str("event_company", n.CompanyID).
					Str("table", n.Table).
					Msg("cross-company notification suppressed")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
			if err := conn.WriteJSON(n); err != nil {
				f.logger.Debug().Err(err).Str("user_id", userID).Msg("feed write failed, closing")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
