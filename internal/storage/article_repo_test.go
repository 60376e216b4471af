package storage

import (
	"context"
	"testing"
)

func TestArticleRepo_FindByLabel(t *testing.T) {
	db := newTestDB(t)
	statutes := NewStatuteRepo(db)
	repo := NewArticleRepo(db)
	ctx := context.Background()

	s, _ := seedStatute(t, statutes, Statute{Title: "中华人民共和国刑法"},
		"第十七条", "第十八条", "第十八条之一", "第一百一十八条")

	plain, err := repo.FindByLabel(ctx, s.LawID, `^第十八条(?![之零一二三四五六七八九十百千])`)
	if err != nil {
		t.Fatalf("FindByLabel() error = %v", err)
	}
	if len(plain) != 1 || plain[0].Label != "第十八条" {
		t.Errorf("FindByLabel() = %+v, want only 第十八条", plain)
	}

	sub, err := repo.FindByLabel(ctx, s.LawID, `^第十八条之一(?![零一二三四五六七八九十])`)
	if err != nil {
		t.Fatalf("FindByLabel() sub error = %v", err)
	}
	if len(sub) != 1 || sub[0].Label != "第十八条之一" {
		t.Errorf("FindByLabel() sub = %+v, want 第十八条之一", sub)
	}
}

func TestArticleRepo_SearchAndCount(t *testing.T) {
	db := newTestDB(t)
	statutes := NewStatuteRepo(db)
	repo := NewArticleRepo(db)
	ctx := context.Background()

	rule, _ := seedStatute(t, statutes, Statute{Title: "某部门规章", Level: "部门规章"}, "第一条", "第二条")
	law, _ := seedStatute(t, statutes, Statute{Title: "某法律", Level: "法律"}, "第一条", "第二条", "第三条")
	seedStatute(t, statutes, Statute{Title: "某旧法", Level: "法律", Status: "已废止"}, "第一条")

	hits, err := repo.Search(ctx, ArticleQuery{ContentPattern: `第一条`})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("Search() = %d hits, want 3", len(hits))
	}
	if hits[0].Statute.Level != "法律" || hits[len(hits)-1].LawID != rule.LawID {
		t.Errorf("Search() should order by authority level, got %s first", hits[0].Statute.Title)
	}

	total, err := repo.Count(ctx, ArticleQuery{ContentPattern: `第一条`})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 3 {
		t.Errorf("Count() = %d, want 3", total)
	}

	paged, err := repo.Search(ctx, ArticleQuery{LawIDs: []string{law.LawID}, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Search() paged error = %v", err)
	}
	if len(paged) != 2 || paged[0].Label != "第二条" {
		t.Errorf("Search() paged = %+v", paged)
	}

	ids := []string{paged[1].ID, "missing", paged[0].ID}
	byID, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(byID) != 2 || byID[0].ID != paged[1].ID || byID[1].ID != paged[0].ID {
		t.Errorf("GetByIDs() did not preserve input order: %+v", byID)
	}
	if byID[0].Statute.Title != "某法律" {
		t.Errorf("GetByIDs() statute title = %v", byID[0].Statute.Title)
	}
}

func TestArticleRepo_Embeddings(t *testing.T) {
	db := newTestDB(t)
	statutes := NewStatuteRepo(db)
	repo := NewArticleRepo(db)
	ctx := context.Background()

	_, low := seedStatute(t, statutes, Statute{Title: "某地方性法规", Level: "地方性法规"}, "第一条")
	_, high := seedStatute(t, statutes, Statute{Title: "某法律", Level: "法律"}, "第一条", "第二条")

	missing, err := repo.ListMissingEmbedding(ctx, EmbeddedQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListMissingEmbedding() error = %v", err)
	}
	if len(missing) != 3 {
		t.Fatalf("ListMissingEmbedding() = %d, want 3", len(missing))
	}
	scoped, err := repo.ListMissingEmbedding(ctx, EmbeddedQuery{LawIDs: []string{low[0].LawID}, Limit: 10})
	if err != nil {
		t.Fatalf("ListMissingEmbedding() scoped error = %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != low[0].ID {
		t.Errorf("ListMissingEmbedding() scoped = %+v", scoped)
	}

	offset, err := repo.ListMissingEmbedding(ctx, EmbeddedQuery{Limit: 10, Offset: 2})
	if err != nil {
		t.Fatalf("ListMissingEmbedding() offset error = %v", err)
	}
	if len(offset) != 1 || offset[0].ID != missing[2].ID {
		t.Errorf("ListMissingEmbedding() offset = %+v, want last row", offset)
	}

	for _, a := range []Article{low[0], high[0], high[1]} {
		if err := repo.SetEmbedding(ctx, a.ID, []float32{1, 0}); err != nil {
			t.Fatalf("SetEmbedding() error = %v", err)
		}
	}
	if err := repo.SetEmbedding(ctx, "missing", []float32{1}); err != ErrNotFound {
		t.Errorf("SetEmbedding() missing = %v, want ErrNotFound", err)
	}

	snapshot, err := repo.ListEmbedded(ctx, EmbeddedQuery{Limit: 2})
	if err != nil {
		t.Fatalf("ListEmbedded() error = %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("ListEmbedded() = %d, want 2", len(snapshot))
	}
	for _, a := range snapshot {
		if a.LawID == low[0].LawID {
			t.Error("ListEmbedded() cap should drop the lowest authority level first")
		}
		if len(a.Embedding) != 2 {
			t.Errorf("ListEmbedded() embedding = %v", a.Embedding)
		}
	}

	remaining, err := repo.ListMissingEmbedding(ctx, EmbeddedQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListMissingEmbedding() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("ListMissingEmbedding() after backfill = %d, want 0", len(remaining))
	}
}

func TestArticleRepo_ListByLaw(t *testing.T) {
	db := newTestDB(t)
	statutes := NewStatuteRepo(db)
	repo := NewArticleRepo(db)
	ctx := context.Background()

	s := &Statute{Title: "某法"}
	articles := []Article{
		{Sequence: 2, Label: "第二条", ChapterPath: "第一章 总则", Content: "b"},
		{Sequence: 1, Label: "第一条", ChapterPath: "第一章 总则", Content: "a"},
		{Sequence: 3, Label: "第三条", ChapterPath: "第二章 分则", Content: "c"},
	}
	if err := statutes.Replace(ctx, s, articles); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	all, err := repo.ListByLaw(ctx, s.LawID, "", 0)
	if err != nil {
		t.Fatalf("ListByLaw() error = %v", err)
	}
	if len(all) != 3 || all[0].Label != "第一条" {
		t.Errorf("ListByLaw() = %+v, want display order", all)
	}

	chapter, err := repo.ListByLaw(ctx, s.LawID, "分则", 0)
	if err != nil {
		t.Fatalf("ListByLaw() chapter error = %v", err)
	}
	if len(chapter) != 1 || chapter[0].Label != "第三条" {
		t.Errorf("ListByLaw() chapter = %+v", chapter)
	}
}

func TestArticleRepo_Coverage(t *testing.T) {
	db := newTestDB(t)
	statutes := NewStatuteRepo(db)
	repo := NewArticleRepo(db)
	ctx := context.Background()

	s := &Statute{Title: "某法"}
	articles := []Article{
		{Sequence: 1, Label: "第一条", Content: "立法目的"},
		{Sequence: 2, Label: "第二条", Content: "适用"},
	}
	if err := statutes.Replace(ctx, s, articles); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := repo.SetEmbedding(ctx, articles[0].ID, []float32{1}); err != nil {
		t.Fatalf("SetEmbedding() error = %v", err)
	}

	c, err := repo.Coverage(ctx)
	if err != nil {
		t.Fatalf("Coverage() error = %v", err)
	}
	if c.Statutes != 1 || c.Articles != 2 || c.Embedded != 1 {
		t.Errorf("Coverage() = %+v", c)
	}
	if len(c.ContentLengths) != 2 || c.ContentLengths[0] != 2 || c.ContentLengths[1] != 4 {
		t.Errorf("Coverage() lengths = %v, want [2 4] in runes", c.ContentLengths)
	}
}
