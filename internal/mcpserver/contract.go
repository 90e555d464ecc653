package mcpserver

// FilterGrammar describes the list query format accepted by list_records
// and produced by encode_query.
const FilterGrammar = `# catadmin list query format

List pages are addressed by a URL query string with three parameters,
always emitted in this order:

` + "```" + `
page=2&size=10&filters=status:published;brand.title:Tesla,Lucid
` + "```" + `

- ` + "`page`" + `: 1-based page number. Missing, non-numeric or < 1 means 1.
- ` + "`size`" + `: rows per page. Missing, non-numeric or < 1 means 10.
- ` + "`filters`" + `: optional, omitted when no filter is set.

## filters

` + "`filters`" + ` is a list of clauses separated by ` + "`;`" + `. Each clause is
` + "`field:value1,value2`" + `:

1. The field is everything before the first ` + "`:`" + `. Nested fields use dots
   (` + "`brand.title`" + `).
2. Values are separated by ` + "`,`" + `. A single value is a one-element list.
3. A clause without ` + "`:`" + ` or with an empty field is ignored.
4. When a field repeats, the last clause wins.
5. ` + "`:`" + ` and ` + "`,`" + ` stay literal on the wire; every other reserved
   character, including ` + "`;`" + `, is percent-encoded.

## Common fields

- ` + "`status`" + `: processing, published, warning, error
- ` + "`title`" + `, ` + "`slug`" + `: text match, server defined
- ` + "`brand.title`" + ` (models), ` + "`model.title`" + ` (galleries, specs)

## Resources

brands, models, ratings, galleries, specs. Use ` + "`new`" + ` as the id to create a
record.
`
