package sellerdynamics

import "encoding/xml"

const (
	soapNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	apiNamespace  = "https://my.sellerdynamics.com/"
	stockAction   = apiNamespace + "GetStockLevels"
)

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soap:Envelope"`
	XSI     string      `xml:"xmlns:xsi,attr"`
	XSD     string      `xml:"xmlns:xsd,attr"`
	Soap    string      `xml:"xmlns:soap,attr"`
	Body    requestBody `xml:"soap:Body"`
}

type requestBody struct {
	GetStockLevels getStockLevels
}

type getStockLevels struct {
	XMLName        xml.Name `xml:"https://my.sellerdynamics.com/ GetStockLevels"`
	EncryptedLogin string   `xml:"encryptedLogin"`
	RetailerID     string   `xml:"retailerId"`
	PageNumber     int      `xml:"pageNumber"`
	PageSize       int      `xml:"pageSize"`
}

func newStockLevelsRequest(login, retailerID string, page, pageSize int) requestEnvelope {
	return requestEnvelope{
		XSI:  "http://www.w3.org/2001/XMLSchema-instance",
		XSD:  "http://www.w3.org/2001/XMLSchema",
		Soap: soapNamespace,
		Body: requestBody{GetStockLevels: getStockLevels{
			EncryptedLogin: login,
			RetailerID:     retailerID,
			PageNumber:     page,
			PageSize:       pageSize,
		}},
	}
}

// responseEnvelope matches elements by local name so namespace prefixes do not matter.
type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *struct {
			Code   string `xml:"faultcode"`
			String string `xml:"faultstring"`
		} `xml:"Fault"`
		Response struct {
			Result stockLevelsResult `xml:"GetStockLevelsResult"`
		} `xml:"GetStockLevelsResponse"`
	} `xml:"Body"`
}

// stockLevelsResult keeps flags as text: the API sends "true"/"false" and sometimes empty elements.
type stockLevelsResult struct {
	IsError      string       `xml:"IsError"`
	More         string       `xml:"More"`
	ErrorMessage string       `xml:"ErrorMessage"`
	StockLevels  []stockLevel `xml:"StockLevels>StockLevel"`
}

type stockLevel struct {
	SKU         string `xml:"SKU"`
	Quantity    string `xml:"Quantity"`
	ProductName string `xml:"ProductName"`
}
