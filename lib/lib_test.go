package lib_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/spamcheck"
)

// ExampleNewDetector demonstrates how to initialize a new Detector and use it to score a form submission.
func ExampleNewDetector() {
	// initialize a new Detector with a Config
	detector := formspam.NewDetector(formspam.Config{HistorySize: 10})
	defer detector.Close()

	// load extra spam phrases
	n, err := detector.LoadPhrases(strings.NewReader("crypto doubler\nmagic pill\n"))
	if err != nil {
		fmt.Println("Error loading phrases:", err)
		return
	}
	fmt.Println("Loaded", n, "phrases")

	// score a submission with default settings
	settings := formspam.DefaultSettings()
	settings.MarkDifferentLanguageSpam = true
	req := spamcheck.Request{
		Caller: "192.0.2.1",
		Submission: spamcheck.Submission{
			{Key: "name", Value: "John Doe"},
			{Key: "message", Value: "Try the crypto doubler at http://bit.ly/x"},
		},
		Meta: spamcheck.MetaData{Type: "form", FormID: "contact"},
	}
	verdict := detector.Score(context.Background(), req, settings)
	if verdict.Spam {
		fmt.Println("The submission is spam:", verdict.String())
	} else {
		fmt.Println("The submission is not spam:", verdict.String())
	}
}
