package status

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"
	prom "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) lastRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.source.LastRecord()
	if !ok {
		http.Error(w, "no record archived yet", http.StatusNotFound)
		return
	}

	b, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("error encoding record to json: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	buf := new(bytes.Buffer)
	var families []*prom.MetricFamily
	if rec, ok := s.source.LastRecord(); ok {
		families = MetricFamilies(&rec)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(buf, mf); err != nil {
			log.Errorf("error encoding metric family %s: %v", mf.GetName(), err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", string(expfmt.FmtText))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
