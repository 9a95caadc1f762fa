// mockengine emulates the OpenAI-compatible /v1/completions endpoint of
// a llama.cpp server with canned output, for local development against
// llamagate without a loaded model.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

func main() {
	port := flag.String("port", "8001", "Port to run the server on")
	reply := flag.String("reply", "This is a canned completion from the mock engine.", "Completion text to return")
	flag.Parse()

	r := gin.Default()

	r.POST("/v1/completions", func(c *gin.Context) {
		var req openai.CompletionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := "cmpl-" + uuid.NewString()
		created := time.Now().Unix()
		words := strings.SplitAfter(*reply, " ")

		if !req.Stream {
			c.JSON(http.StatusOK, openai.CompletionResponse{
				ID:      id,
				Object:  "text_completion",
				Created: created,
				Model:   req.Model,
				Choices: []openai.CompletionChoice{
					{Index: 0, Text: *reply, FinishReason: "stop"},
				},
				Usage: openai.Usage{
					PromptTokens:     8,
					CompletionTokens: len(words),
					TotalTokens:      8 + len(words),
				},
			})
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")

		for _, word := range words {
			writeEvent(c, openai.CompletionResponse{
				ID:      id,
				Object:  "text_completion",
				Created: created,
				Model:   req.Model,
				Choices: []openai.CompletionChoice{{Index: 0, Text: word}},
			})
		}
		writeEvent(c, openai.CompletionResponse{
			ID:      id,
			Object:  "text_completion",
			Created: created,
			Model:   req.Model,
			Choices: []openai.CompletionChoice{{Index: 0, FinishReason: "stop"}},
		})
		fmt.Fprint(c.Writer, "data: [DONE]\n\n")
		c.Writer.Flush()
	})

	if err := r.Run(":" + *port); err != nil {
		log.Fatal(err)
	}
}

func writeEvent(c *gin.Context, resp openai.CompletionResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}
