package storage

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// DefaultStatus is the status of a statute in force.
const DefaultStatus = "有效"

// Statute is one revision of a piece of legislation.
type Statute struct {
	LawID      string   `json:"law_id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Level      string   `json:"level"`
	IssueOrg   string   `json:"issue_org"`
	IssueDate  string   `json:"issue_date"`
	EffectDate string   `json:"effect_date"`
	Status     string   `json:"status"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	SourceURL  string   `json:"source_url"`
	FullText   string   `json:"full_text,omitempty"`
}

// Article is one article of a statute.
type Article struct {
	ID          string    `json:"id"`
	LawID       string    `json:"law_id"`
	Sequence    int       `json:"sequence"` // position within the statute, not the legal article number
	Label       string    `json:"label"`    // display label, e.g. 第十八条之一
	ChapterPath string    `json:"chapter_path"`
	Content     string    `json:"content"`
	Keywords    []string  `json:"keywords"`
	Embedding   []float32 `json:"-"`
}

// ArticleHit is an article joined with the metadata of its statute.
type ArticleHit struct {
	Article
	Statute Statute
}

// LawID derives the stable statute identifier from its canonical title.
func LawID(title string) string {
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:])[:16]
}

// levelRank orders statutes by legal authority for snapshot prioritisation.
const levelRank = `CASE s.level
	WHEN '宪法' THEN 0
	WHEN '法律' THEN 1
	WHEN '司法解释' THEN 2
	WHEN '行政法规' THEN 3
	WHEN '监察法规' THEN 3
	WHEN '部门规章' THEN 4
	WHEN '地方性法规' THEN 5
	ELSE 6 END`

func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has invalid length %d", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
