/*
Package lightgbm implements histogram-based gradient boosted decision trees for binary
classification, following the LightGBM training scheme.

Trees are grown leaf-wise: at every step the leaf with the largest split gain is split,
until NumLeaves is reached or no leaf has a split that satisfies MinDataInLeaf,
MinSumHessianInLeaf and MinGainToSplit. Feature values are bucketed into at most MaxBin
bins per feature before training, and split search over features runs in parallel with
an order-preserving reduction, so a given input always yields the same ensemble.

Example:

	params := lightgbm.DefaultParams()
	params.NumIterations = 50
	model, err := lightgbm.NewTrainer(params).Fit(ctx, X, y)
	if err != nil {
		return err
	}
	p := model.PredictProba(x)
*/
package lightgbm
