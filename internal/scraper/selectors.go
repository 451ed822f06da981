package scraper

// Locators of the cascading vehicle form on the landing page.
const (
	SelVehicleType  = "#itipo"
	SelBrand        = "#imarca"
	SelDisplacement = "#icc"
	SelModel        = "#imodel"
)

// SelectorChain is the form's locators in root-first order; form resets
// force each of them back to the default option.
var SelectorChain = []string{SelVehicleType, SelBrand, SelDisplacement, SelModel}

const (
	selYearTable     = "table.resultats"
	selYearTableRows = "table.resultats tbody tr"
	selYearTableHead = "table.resultats thead th"

	selProductContainer = "div.vista_fitxes"
	selPaginationLinks  = "div.paginacio a.num[href], .pagination a[href]"

	selDetailContainer   = ".detalls"
	selProductName       = ".nom_producte > span"
	selProductNameLoose  = ".nom_producte"
	selListingBrandImage = "div.marca img.marcaprod, .marca img, img[class*=\"marca\"]"
	selListingBrand      = ".marca, [class*=\"brand\"], .brand"
	selListingTitle      = ".nom_producte, .product-name, .title, h3, h4"

	// The site shows this phrase on listings with no products; its
	// absence together with a missing container means a broken page.
	noProductsText = "no se han encontrado productos"

	referenceLabel = "Referencia:"
)

// Candidate locators for product tiles, tried in order. The site has
// shipped more than one markup variant for listings.
var productTileSelectors = []string{
	"div.vista_fitxes > div.producte",
	"div.vista_fitxes .producte",
	".producte",
	"div[class*=\"product\"]",
	"article.product",
}
