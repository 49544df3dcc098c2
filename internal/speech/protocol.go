package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Message paths used by the recognition websocket.
const (
	pathSpeechConfig = "speech.config"
	pathAudio        = "audio"
	pathHypothesis   = "speech.hypothesis"
	pathPhrase       = "speech.phrase"
	pathTurnEnd      = "turn.end"
)

const headerSeparator = "\r\n\r\n"

var errMalformedMessage = errors.New("malformed recognizer message")

// Recognition statuses carried by speech.phrase.
const (
	statusSuccess               = "Success"
	statusNoMatch               = "NoMatch"
	statusInitialSilenceTimeout = "InitialSilenceTimeout"
	statusBabbleTimeout         = "BabbleTimeout"
	statusEndOfDictation        = "EndOfDictation"
)

type hypothesisBody struct {
	Text string `json:"Text"`
}

type phraseBody struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// encodeTextMessage frames a JSON body with the protocol headers.
func encodeTextMessage(path, requestID, contentType string, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Path: %s\r\n", path)
	fmt.Fprintf(&buf, "X-RequestId: %s\r\n", requestID)
	fmt.Fprintf(&buf, "X-Timestamp: %s\r\n", timestamp())
	fmt.Fprintf(&buf, "Content-Type: %s", contentType)
	buf.WriteString(headerSeparator)
	buf.Write(body)
	return buf.Bytes()
}

// encodeAudioMessage frames an audio chunk: a big-endian uint16 header length,
// the headers, then the raw audio bytes.
func encodeAudioMessage(requestID string, chunk []byte) []byte {
	headers := fmt.Sprintf("Path: %s\r\nX-RequestId: %s\r\nX-Timestamp: %s\r\nContent-Type: audio/x-wav\r\n",
		pathAudio, requestID, timestamp())

	buf := make([]byte, 2, 2+len(headers)+len(chunk))
	binary.BigEndian.PutUint16(buf, uint16(len(headers)))
	buf = append(buf, headers...)
	buf = append(buf, chunk...)
	return buf
}

// parseTextMessage splits a recognizer text frame into headers and body.
func parseTextMessage(data []byte) (map[string]string, []byte, error) {
	idx := bytes.Index(data, []byte(headerSeparator))
	if idx < 0 {
		return nil, nil, errMalformedMessage
	}

	headers := make(map[string]string)
	for _, line := range strings.Split(string(data[:idx]), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	if headers["path"] == "" {
		return nil, nil, errMalformedMessage
	}
	return headers, data[idx+len(headerSeparator):], nil
}
