package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"conduit/internal/stub"
	"conduit/internal/utils"
)

func main() {
	addr := flag.String("addr", ":8081", "Listen address")
	seed := flag.Bool("seed", true, "Create the demo user jake@jake.jake / jakejake")
	flag.Parse()

	logger := utils.NewWriterLogger(os.Stderr)
	s := stub.NewServer(logger)
	if *seed {
		if _, err := s.AddUser("jake", "jake@jake.jake", "jakejake"); err != nil {
			log.Fatal(err)
		}
		s.AddArticle(stub.Article{
			Slug:        "how-to-train-your-dragon",
			Title:       "How to train your dragon",
			Description: "Ever wonder how?",
			Body:        "You have to believe",
			TagList:     []string{"dragons", "training"},
			Author:      "jake",
		})
	}

	log.Println("Stub API running on", *addr)
	log.Fatal(http.ListenAndServe(*addr, stub.NewRouter(s)))
}
