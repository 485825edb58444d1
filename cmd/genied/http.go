package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/speters/geniego/pkg/genie"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type objectValue struct {
	Object genie.ObjectType `json:"object"`
	Index  byte             `json:"index"`
	Value  uint16           `json:"value"`
}

func newRouter() *mux.Router {
	router := mux.NewRouter()

	reg := genie.NewRegistry(dev)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})).Methods("GET")

	router.HandleFunc("/version", versionInfo).Methods("GET")
	router.HandleFunc("/stats", getStats).Methods("GET")
	router.HandleFunc("/object/{object}/{index}", getObject).Methods("GET")
	router.HandleFunc("/object/{object}/{index}", setObject).Methods("POST")
	router.HandleFunc("/string/{index}", setString).Methods("POST")
	router.HandleFunc("/contrast", setContrast).Methods("POST")
	router.HandleFunc("/replies", getReplies).Methods("GET")
	router.HandleFunc("/widgets", getWidgets).Methods("GET")
	router.HandleFunc("/widget/{name}", getWidget).Methods("GET")
	router.HandleFunc("/widget/{name}", setWidget).Methods("POST")
	return router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	e.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, genie.ErrUnknownWidget):
		status = http.StatusNotFound
	case errors.Is(err, genie.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, genie.ErrNak):
		status = http.StatusBadGateway
	case errors.Is(err, genie.ErrTooLong), errors.Is(err, genie.ErrValueRange), errors.Is(err, errBadArg):
		status = http.StatusBadRequest
	case errors.Is(err, genie.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("\"OK\"\n"))
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Version   string `json:"version"`
		BuildDate string `json:"build_date"`
	}{Version: buildVersion, BuildDate: buildDate})
}

func getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, dev.Stats())
}

// objectAddr resolves the {object} and {index} path variables
func objectAddr(r *http.Request) (genie.ObjectType, byte, error) {
	params := mux.Vars(r)
	obj, err := parseObject(params["object"])
	if err != nil {
		return 0, 0, err
	}
	idx, err := parseByte(params["index"])
	if err != nil {
		return 0, 0, err
	}
	return obj, idx, nil
}

func getObject(w http.ResponseWriter, r *http.Request) {
	obj, idx, err := objectAddr(r)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := dev.ReadObj(r.Context(), obj, idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, objectValue{Object: obj, Index: idx, Value: v})
}

func setObject(w http.ResponseWriter, r *http.Request) {
	obj, idx, err := objectAddr(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var v uint16
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadArg, err))
		return
	}
	if err := dev.WriteObj(r.Context(), obj, idx, v); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func setString(w http.ResponseWriter, r *http.Request) {
	idx, err := parseByte(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, err)
		return
	}
	var s string
	if err := json.NewDecoder(io.LimitReader(r.Body, 8192)).Decode(&s); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadArg, err))
		return
	}

	if u, _ := strconv.ParseBool(r.URL.Query().Get("unicode")); u {
		err = dev.WriteStrU(r.Context(), idx, s)
	} else {
		err = dev.WriteStr(r.Context(), idx, s)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func setContrast(w http.ResponseWriter, r *http.Request) {
	var v byte
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadArg, err))
		return
	}
	if err := dev.WriteContrast(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

func getReplies(w http.ResponseWriter, r *http.Request) {
	reports, magic := pendingReplies()
	writeJSON(w, struct {
		Reports []genie.Frame      `json:"reports"`
		Magic   []genie.MagicFrame `json:"magic"`
	}{Reports: reports, Magic: magic})
}

func getWidgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, dev.Widgets)
}

func getWidget(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	wd, ok := dev.Widgets[name]
	if !ok {
		writeError(w, fmt.Errorf("%w %q", genie.ErrUnknownWidget, name))
		return
	}
	v, err := dev.ReadWidget(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	rWd := *wd
	rWd.Value = v
	writeJSON(w, rWd)
}

func setWidget(w http.ResponseWriter, r *http.Request) {
	var v float64
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadArg, err))
		return
	}
	if err := dev.WriteWidget(r.Context(), mux.Vars(r)["name"], v); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}
