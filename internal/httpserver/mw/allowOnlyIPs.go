package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/utils"
)

// AllowOnlyCIDRS allows only specific IPs/CIDRs. An empty list restricts to
// loopback, so a control endpoint is never open by accident.
// trustProxy should be true when running behind a trusted reverse proxy.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowed) == 0 {
		allowed = utils.LoopbackCIDRS
	}
	m, invalid := utils.NewIPMatcher(allowed)
	for _, s := range invalid {
		log.Warn("AllowOnlyCIDRS: ignoring invalid entry", logger.String("entry", s))
	}

	log.Debugf("AllowOnlyCIDRS: initialized with %d rules, trustProxy=%v", len(allowed), trustProxy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debugf("AllowOnlyCIDRS: IP %s REJECTED (RemoteAddr=%s)", ip, r.RemoteAddr)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
