package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/storage"
	"grocery-price-lab/internal/timeline"
)

// productWithPrices is a product with its full price history.
type productWithPrices struct {
	*domain.Product
	Prices []*domain.PriceRecord `json:"prices"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// status reports the latest ingestion run.
func (s *Server) status(c *gin.Context) {
	if s.runs == nil {
		fail(c, errors.New("run history not configured"))
		return
	}
	run, err := s.runs.GetLatest(c.Request.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "no ingestion run recorded yet"})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// productPrices handles GET /prices/:product_id?start=&end=.
func (s *Server) productPrices(c *gin.Context) {
	productID, err := pathInt64(c, "product_id")
	if err != nil {
		fail(c, err)
		return
	}
	w, err := timeline.ParseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		fail(c, err)
		return
	}

	tl, err := s.timeline.Reconstruct(c.Request.Context(), productID, w)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// advertisedProducts handles GET /discount/: products on offer now, with their prices.
func (s *Server) advertisedProducts(c *gin.Context) {
	asOf, err := s.asOf(c)
	if err != nil {
		fail(c, err)
		return
	}
	products, err := s.deals.Advertised(c.Request.Context(), asOf)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.withPrices(c, products)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// departmentDeals handles GET /discount/departments.
func (s *Server) departmentDeals(c *gin.Context) {
	asOf, err := s.asOf(c)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.deals.ByDepartment(c.Request.Context(), asOf)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// departmentDealList handles GET /discount/departments/:department_id.
func (s *Server) departmentDealList(c *gin.Context) {
	deptID, err := pathInt64(c, "department_id")
	if err != nil {
		fail(c, err)
		return
	}
	asOf, err := s.asOf(c)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.deals.ForDepartment(c.Request.Context(), deptID, asOf)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// topDeals handles GET /discount/top?n=.
func (s *Server) topDeals(c *gin.Context) {
	n, err := queryNonNegative(c, "n")
	if err != nil {
		fail(c, err)
		return
	}
	asOf, err := s.asOf(c)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.deals.Top(c.Request.Context(), asOf, n)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// thresholdDeals handles GET /discount/threshold?pct=.
func (s *Server) thresholdDeals(c *gin.Context) {
	pct, err := queryFloat(c, "pct", deals.DefaultThreshold)
	if err != nil {
		fail(c, err)
		return
	}
	asOf, err := s.asOf(c)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.deals.AboveThreshold(c.Request.Context(), asOf, pct)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// departments handles GET /department/.
func (s *Server) departments(c *gin.Context) {
	out, err := s.products.Departments(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// departmentCount handles GET /department/:department_id/count.
func (s *Server) departmentCount(c *gin.Context) {
	deptID, err := pathInt64(c, "department_id")
	if err != nil {
		fail(c, err)
		return
	}
	n, err := s.products.CountByDepartment(c.Request.Context(), deptID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// departmentProducts handles GET /department/:department_id?limit=&offset=, ordered by name.
func (s *Server) departmentProducts(c *gin.Context) {
	deptID, err := pathInt64(c, "department_id")
	if err != nil {
		fail(c, err)
		return
	}
	limit, err := queryNonNegative(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}
	offset, err := queryNonNegative(c, "offset")
	if err != nil {
		fail(c, err)
		return
	}

	out, err := s.products.List(c.Request.Context(), domain.ProductFilter{
		DepartmentID: &deptID,
		OrderByName:  true,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// productsByParams handles GET /product/ with optional equality filters.
func (s *Server) productsByParams(c *gin.Context) {
	filter, err := productFilter(c)
	if err != nil {
		fail(c, err)
		return
	}
	products, err := s.products.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := s.withPrices(c, products)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func productFilter(c *gin.Context) (domain.ProductFilter, error) {
	var (
		f   domain.ProductFilter
		err error
	)
	if f.ID, err = queryInt64(c, "id"); err != nil {
		return f, err
	}
	if f.DepartmentID, err = queryInt64(c, "department"); err != nil {
		return f, err
	}
	if f.UpdatedOn, err = queryDay(c, "updated_on"); err != nil {
		return f, err
	}
	if f.IsAvailableInAllStores, err = queryBool(c, "is_available_in_all_stores"); err != nil {
		return f, err
	}
	if f.IsBatchItem, err = queryBool(c, "is_batch_item"); err != nil {
		return f, err
	}
	if f.IsWeightItem, err = queryBool(c, "is_weight_item"); err != nil {
		return f, err
	}
	if f.IsSelfScaleItem, err = queryBool(c, "is_self_scale_item"); err != nil {
		return f, err
	}
	if f.TemperatureZone, err = queryInt(c, "temp_zone"); err != nil {
		return f, err
	}
	if f.AgeLimit, err = queryInt(c, "age_limit"); err != nil {
		return f, err
	}
	if f.Limit, err = queryNonNegative(c, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

// withPrices attaches each product's price records in one store round trip.
func (s *Server) withPrices(c *gin.Context, products []*domain.Product) ([]productWithPrices, error) {
	out := make([]productWithPrices, 0, len(products))
	if len(products) == 0 {
		return out, nil
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	records, err := s.prices.GetByProductIDs(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[int64][]*domain.PriceRecord, len(products))
	for _, r := range records {
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
	}

	for _, p := range products {
		prices := byProduct[p.ID]
		if prices == nil {
			prices = []*domain.PriceRecord{}
		}
		out = append(out, productWithPrices{Product: p, Prices: prices})
	}
	return out, nil
}
