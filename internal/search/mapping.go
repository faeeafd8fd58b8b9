package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for document entries.
// Owner and id are keywords; names use English stemming; artist nicknames and
// file types use the simple analyzer so they are matched as written.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"id", "user_id"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = field == "id"
		docMapping.AddFieldMappingsAt(field, fm)
	}

	for _, field := range []string{"composition_name", "artist_name", "file_name"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = true
		fm.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	nickname := bleve.NewTextFieldMapping()
	nickname.Analyzer = simple.Name
	nickname.Store = true
	docMapping.AddFieldMappingsAt("artist_nickname", nickname)

	fileType := bleve.NewTextFieldMapping()
	fileType.Analyzer = simple.Name
	docMapping.AddFieldMappingsAt("file_type", fileType)

	// Comments can be long; searchable, not stored.
	comment := bleve.NewTextFieldMapping()
	comment.Analyzer = en.AnalyzerName
	comment.Store = false
	docMapping.AddFieldMappingsAt("comment", comment)

	docMapping.AddFieldMappingsAt("is_favorite", bleve.NewBooleanFieldMapping())

	price := bleve.NewTextFieldMapping()
	price.Analyzer = keyword.Name
	price.Store = true
	docMapping.AddFieldMappingsAt("price", price)

	createdAt := bleve.NewNumericFieldMapping()
	createdAt.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAt)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
