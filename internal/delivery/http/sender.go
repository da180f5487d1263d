package http

import (
	"bufio"
	"bytes"
	"net"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// sender - answers exactly one request and closes the connection. A success
// is the tagged JSON of the response; an error is its "<Kind>: <message>"
// string as a JSON string, with the status taken from the kind.
type sender struct {
	conn net.Conn
	gzip bool
}

func newSender(conn net.Conn) *sender {
	return &sender{conn: conn}
}

// Send - implements workers.ResponseSender.
func (s *sender) Send(result database.Result) error {
	defer func() {
		if err := s.conn.Close(); err != nil {
			logger.Debug("failed to close connection", zap.Error(err))
		}
	}()

	status, payload := encodeResult(result)

	var response fasthttp.Response
	response.SetStatusCode(status)
	response.Header.Set(fasthttp.HeaderConnection, "Closed")
	response.Header.SetContentType("application/json")

	if s.gzip {
		compressed, err := gzipPayload(payload)
		if err != nil {
			logger.Warn("failed to compress response", zap.Error(err))
		} else {
			response.Header.Set(fasthttp.HeaderContentEncoding, "gzip")
			payload = compressed
		}
	}

	response.SetBody(payload)

	writer := bufio.NewWriter(s.conn)
	if err := response.Write(writer); err != nil {
		return models.WriteErrorf("Error writing to stream.")
	}
	if err := writer.Flush(); err != nil {
		return models.NetworkErrorf("Error flushing write buffer for stream.")
	}

	return nil
}

// encodeResult - picks the status code and encodes the body.
func encodeResult(result database.Result) (int, []byte) {
	if result.Err != nil {
		payload, err := json.Marshal(result.Err.Error())
		if err != nil {
			return fasthttp.StatusInternalServerError, []byte(`"InternalError: unencodable error"`)
		}

		return statusOf(models.KindOf(result.Err)), payload
	}

	payload, err := json.Marshal(result.Response)
	if err != nil {
		logger.Error("failed to encode response", zap.Error(err))
		return fasthttp.StatusInternalServerError, []byte(`"InternalError: unencodable response"`)
	}

	return fasthttp.StatusOK, payload
}

func gzipPayload(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(payload); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
