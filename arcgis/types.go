package arcgis

import "fmt"

// APIError is the error object ArcGIS REST endpoints embed in a 200 response.
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message)
	}
	return "arcgis error: " + e.Message
}

// Layer represents the metadata of a FeatureServer or MapServer layer.
type Layer struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	GeometryType string       `json:"geometryType"`
	Description  string       `json:"description"`
	DrawingInfo  *DrawingInfo `json:"drawingInfo"`
	Error        *APIError    `json:"error"`
}

// DrawingInfo represents drawing information for a layer.
type DrawingInfo struct {
	Renderer *Renderer `json:"renderer"`
}

// Renderer represents the renderer for a layer. Unique value renderers list
// their categories either flat in UniqueValueInfos or nested in UniqueValueGroups.
type Renderer struct {
	Type              string             `json:"type"`
	Field1            string             `json:"field1"`
	DefaultLabel      string             `json:"defaultLabel"`
	UniqueValueInfos  []UniqueValueInfo  `json:"uniqueValueInfos"`
	UniqueValueGroups []UniqueValueGroup `json:"uniqueValueGroups"`
}

// UniqueValueInfo is one category of a unique value renderer.
// Value is a string or a number depending on the field type.
type UniqueValueInfo struct {
	Value       any    `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// UniqueValueGroup represents a group of unique values for rendering.
type UniqueValueGroup struct {
	Heading string             `json:"heading"`
	Classes []UniqueValueClass `json:"classes"`
}

// UniqueValueClass represents a class of unique values for rendering.
type UniqueValueClass struct {
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Values      [][]string `json:"values"`
}

// Feature is a geometry plus attributes in Esri JSON.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   any            `json:"geometry"`
}

// EditResult reports the outcome of one add, update or delete.
type EditResult struct {
	ObjectID *int64    `json:"objectId"`
	Success  bool      `json:"success"`
	Error    *APIError `json:"error"`
}

// ApplyEditsResponse is the body returned by a layer's applyEdits operation.
type ApplyEditsResponse struct {
	AddResults    []EditResult `json:"addResults"`
	DeleteResults []EditResult `json:"deleteResults"`
	Error         *APIError    `json:"error"`
}

// ObjectIDsResponse is the body of a returnIdsOnly query.
type ObjectIDsResponse struct {
	ObjectIDFieldName string    `json:"objectIdFieldName"`
	ObjectIDs         []int64   `json:"objectIds"`
	Error             *APIError `json:"error"`
}
