package channel

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope written by the HTTP handler.
type Response struct {
	Result any    `json:"result"`
	Error  *Error `json:"error,omitempty"`
}

const maxRequestBytes = 1 << 20

// HTTPHandler serves POST requests carrying a JSON Call. Coded errors are
// returned in the envelope with status 200; only malformed requests get an
// HTTP error status.
func HTTPHandler(d *Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var call Call
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		dec.UseNumber()
		if err := dec.Decode(&call); err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Error: &Error{
				Code: CodeInvalidArguments, Message: "malformed request: " + err.Error(),
			}})
			return
		}

		result, err := d.Handle(r.Context(), call)
		if err != nil {
			ce, ok := err.(*Error)
			if !ok {
				ce = &Error{Code: CodeOf(err), Message: err.Error(), Err: err}
			}
			if ce.Err != nil {
				ce = &Error{Code: ce.Code, Message: ce.Message + ": " + ce.Err.Error()}
			}
			writeJSON(w, http.StatusOK, Response{Error: ce})
			return
		}
		writeJSON(w, http.StatusOK, Response{Result: result})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
