// Constantes para firma XAdES-BES según el perfil de comprobantes
// electrónicos del SRI.

package firma

// Namespaces y algoritmos XMLDSig / XAdES.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceEtsi      = "http://uri.etsi.org/01903/v1.3.2#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2000/09/xmldsig#sha256"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"

	// TipoSignedProperties es el Type de la Reference hacia SignedProperties.
	// El validador del SRI rechaza la firma si falta o difiere.
	TipoSignedProperties = "http://uri.etsi.org/01903#SignedProperties"
)

// Identificadores de los nodos de la firma. La Reference del documento apunta
// al atributo fijo id="comprobante" del elemento raíz.
const (
	ComprobanteID    = "comprobante"
	SignatureID      = "Signature"
	SignedPropsID    = "SignatureSignedProperties"
	SignedInfoID     = "SignatureSignedInfo"
	SignatureValueID = "SignatureValue"
	KeyInfoID        = "SignatureKeyInfo"
	ReferenciaDocID  = "ReferenciaComprobante"
	ObjectID         = "SignatureObject"
)
