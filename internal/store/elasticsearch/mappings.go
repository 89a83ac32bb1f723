package elasticsearch

// RepairersMapping matches repairerDocument. city carries a keyword
// subfield for the wildcard filter.
const RepairersMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text"},
      "address":     {"type": "text"},
      "city":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "postalCode":  {"type": "keyword"},
      "phone":       {"type": "keyword", "index": false},
      "email":       {"type": "keyword", "index": false},
      "rating":      {"type": "float"},
      "location":    {"type": "geo_point"},
      "isVerified":  {"type": "boolean"},
      "specialties": {"type": "keyword"},
      "services":    {"type": "keyword"}
    }
  }
}`

// QueryLogMapping matches models.QueryLogEntry. The parsed intent is stored
// but not indexed.
const QueryLogMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "rawQuery":     {"type": "text", "fields": {"keyword": {"type": "keyword", "ignore_above": 512}}},
      "parsedIntent": {"type": "object", "enabled": false},
      "matchedIds":   {"type": "keyword"},
      "resultsCount": {"type": "integer"},
      "usedFallback": {"type": "boolean"},
      "sessionId":    {"type": "keyword"},
      "userId":       {"type": "keyword"},
      "createdAt":    {"type": "date"}
    }
  }
}`
