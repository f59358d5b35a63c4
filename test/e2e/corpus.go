// Package e2e runs searches against a generated video catalog written in every
// supported file format.
package e2e

import (
	"context"
	"fmt"

	"github.com/hyperjump/querytube/internal/embedding"
)

// Video is one generated catalog row.
type Video struct {
	ID          string
	Title       string
	PublishedAt string
	Transcript  string
	Embedding   []float32
}

// QueryCase is a query and the video that must rank first for it.
type QueryCase struct {
	Query      string
	ExpectedID string
}

// Corpus is a generated catalog plus the queries checked against it.
type Corpus struct {
	Dimensions int
	Videos     []Video
	Cases      []QueryCase
}

var topics = []struct {
	subject string
	line    string
}{
	{"sourdough starter feeding", "feed the starter twice a day and keep it warm"},
	{"cast iron restoration", "strip the rust with vinegar then season the pan"},
	{"bike chain cleaning", "degrease the chain and lube every link"},
	{"houseplant repotting", "loosen the roots and pick a pot one size up"},
	{"espresso dialing in", "grind finer when the shot runs fast"},
	{"guitar string changes", "stretch new strings before tuning"},
	{"knife sharpening whetstone", "hold a steady angle across the stone"},
	{"drywall patching", "feather the compound past the edges of the hole"},
	{"tomato pruning", "pinch the suckers below the first flower cluster"},
	{"chess opening traps", "watch for the early queen attack on f7"},
	{"budget travel packing", "roll clothes and keep one carry on bag"},
	{"watercolor wet blending", "drop pigment into damp paper and tilt"},
	{"running cadence drills", "short quick steps reduce overstriding"},
	{"leather wallet stitching", "saddle stitch with two needles and waxed thread"},
	{"home network mesh", "place nodes halfway between router and dead zones"},
	{"beekeeping hive inspection", "smoke the entrance and check for queen cells"},
	{"pottery wheel centering", "brace your elbows and lean into the clay"},
	{"kayak roll practice", "hip snap first then bring the head up last"},
	{"bread scoring patterns", "score at a shallow angle with a fresh blade"},
	{"composting kitchen scraps", "balance greens and browns and turn the pile weekly"},
}

// BuildCorpus generates n videos whose embeddings come from enc applied to the
// title. Every title is unique, so querying a title returns its own video first.
func BuildCorpus(ctx context.Context, enc embedding.Embedder, n int) (*Corpus, error) {
	c := &Corpus{Dimensions: enc.Dimensions()}
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		v := Video{
			ID:          fmt.Sprintf("vid%03d", i),
			Title:       fmt.Sprintf("%s part %d", t.subject, i/len(topics)+1),
			PublishedAt: fmt.Sprintf("2024-%02d-%02d 10:00:00", i%12+1, i%28+1),
			Transcript:  fmt.Sprintf("In this episode: %s. Tip number %d.", t.line, i),
		}
		emb, err := enc.Embed(ctx, v.Title)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", v.ID, err)
		}
		v.Embedding = emb
		c.Videos = append(c.Videos, v)
	}
	// One case per topic, spread across the parts.
	for i := 0; i < len(topics) && i < n; i++ {
		v := c.Videos[(i*7)%n]
		c.Cases = append(c.Cases, QueryCase{Query: v.Title, ExpectedID: v.ID})
	}
	return c, nil
}

// EmbeddingColumn names the j-th embedding column. Names are zero padded so
// that lexical and positional order agree.
func EmbeddingColumn(j int) string {
	return fmt.Sprintf("emb_%03d", j)
}

// Header returns the catalog column names in write order.
func (c *Corpus) Header() []string {
	h := []string{"video_id", "title", "datetime", "transcript"}
	for j := 0; j < c.Dimensions; j++ {
		h = append(h, EmbeddingColumn(j))
	}
	return h
}
